package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"maillot-be/internal/order"
	"maillot-be/internal/pricing"
)

var funcs = template.FuncMap{
	"money": pricing.FormatMoney,
	"lineTotal": func(it order.OrderItem) string {
		return pricing.FormatMoney(it.Subtotal())
	},
}

const customerTmpl = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h2 style="color: #4CAF50;">Thank you for your order!</h2>
  <p>Hi {{.CustomerDetails.Name}},</p>
  <p>We have received your order. Here are the details:</p>
  <div style="background: #f9f9f9; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <h3>Order ID: {{.ID}}</h3>
    <p><strong>Status:</strong> Pending</p>
    <p><strong>Phone:</strong> {{.CustomerDetails.Phone}}</p>
    <p><strong>Address:</strong> {{.CustomerDetails.Address}}</p>
  </div>
  <table style="width: 100%; border-collapse: collapse; margin-bottom: 20px;">
    <thead>
      <tr style="background: #f1f1f1;">
        <th style="padding: 10px; text-align: left;">Image</th>
        <th style="padding: 10px; text-align: left;">Product</th>
        <th style="padding: 10px; text-align: left;">Quantity</th>
        <th style="padding: 10px; text-align: left;">Total</th>
      </tr>
    </thead>
    <tbody>
    {{- range .OrderItems}}
      <tr>
        <td style="padding: 10px; border-bottom: 1px solid #ddd;"><img src="{{.Image}}" alt="{{.Name}}" style="width: 50px; height: 50px; object-fit: cover; border-radius: 5px;"></td>
        <td style="padding: 10px; border-bottom: 1px solid #ddd;">{{.Name}}</td>
        <td style="padding: 10px; border-bottom: 1px solid #ddd;">{{.Qty}} x {{money .Price}}</td>
        <td style="padding: 10px; border-bottom: 1px solid #ddd;">{{lineTotal .}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <div style="text-align: right; margin-top: 20px;">
    <p><strong>Shipping:</strong> {{money .ShippingPrice}}</p>
    <p><strong>Tax:</strong> {{money .TaxPrice}}</p>
    <h3 style="color: #000;">Total: {{money .TotalPrice}}</h3>
  </div>
  <p style="margin-top: 30px; font-size: 12px; color: #777;">If you have any questions, please contact us.</p>
</div>`

const adminTmpl = `<div style="font-family: Arial, sans-serif;">
  <h2>New Order Placed</h2>
  <p><strong>Order ID:</strong> {{.ID}}</p>
  <p><strong>Customer:</strong> {{.CustomerDetails.Name}} ({{.CustomerDetails.Email}})</p>
  <p><strong>Phone:</strong> {{.CustomerDetails.Phone}}</p>
  <p><strong>Total Amount:</strong> {{money .TotalPrice}}</p>
  <p>Please check the admin dashboard for more details.</p>
</div>`

var (
	customerTemplate = template.Must(template.New("customer").Funcs(funcs).Parse(customerTmpl))
	adminTemplate    = template.Must(template.New("admin").Funcs(funcs).Parse(adminTmpl))
)

func render(t *template.Template, o order.Order) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRender, t.Name(), err)
	}
	return buf.String(), nil
}

// CustomerEmail builds the confirmation sent to the buyer.
func CustomerEmail(o order.Order) (Message, error) {
	html, err := render(customerTemplate, o)
	if err != nil {
		return Message{}, err
	}
	return Message{To: o.CustomerDetails.Email, Subject: SubjectCustomer, HTML: html}, nil
}

// AdminEmail builds the new-order alert for the store mailbox.
func AdminEmail(o order.Order, adminAddr string) (Message, error) {
	html, err := render(adminTemplate, o)
	if err != nil {
		return Message{}, err
	}
	return Message{To: adminAddr, Subject: SubjectAdmin, HTML: html}, nil
}
