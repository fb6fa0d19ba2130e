// Command cart is a terminal storefront client: it keeps a cart on this
// device and submits it to the API at checkout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"maillot-be/internal/cart"
	"maillot-be/internal/client"
	"maillot-be/internal/logger"
	"maillot-be/internal/order"
	"maillot-be/internal/pricing"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: cart [-api URL] [-dir DIR] [-redis ADDR] <command> [flags] [args]

commands:
  add      [-size S] [-color C] [-qty N] <productID>
  remove   [-size S] [-color C] <productID>
  qty      [-size S] [-color C] <productID> <quantity>
  clear
  show     [-promo CODE]
  promo    <code>
  checkout -name N -email E -address A -phone P [-promo CODE]
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("cart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	apiURL := fs.String("api", envOr("MAILLOT_API", "http://localhost:8080"), "storefront API base URL")
	dir := fs.String("dir", os.Getenv("CART_DIR"), "directory holding the cart file")
	redisAddr := fs.String("redis", os.Getenv("REDIS_ADDR"), "keep the cart in redis instead of a file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	slot, closeSlot, err := openSlot(*dir, *redisAddr)
	if err != nil {
		return err
	}
	defer closeSlot()

	store := cart.Open(ctx, slot)
	api := client.New(*apiURL)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "add":
		return cmdAdd(ctx, store, api, rest, stdout)
	case "remove":
		return cmdRemove(ctx, store, rest, stdout)
	case "qty":
		return cmdQty(ctx, store, rest, stdout)
	case "clear":
		store.Clear(ctx)
		fmt.Fprintln(stdout, "Cart cleared")
		return nil
	case "show":
		return cmdShow(store, rest, stdout)
	case "promo":
		return cmdPromo(rest, stdout)
	case "checkout":
		return cmdCheckout(ctx, store, api, rest, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openSlot(dir, redisAddr string) (cart.Slot, func(), error) {
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		return cart.NewRedisSlot(rdb, cart.DefaultSlotName), func() { _ = rdb.Close() }, nil
	}

	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, nil, fmt.Errorf("no cart directory: %w", err)
		}
		dir = filepath.Join(base, "maillot")
	}
	return cart.NewFileSlot(dir, cart.DefaultSlotName), func() {}, nil
}

// variantFlags are the size and color that, with the product id, pick a line.
type variantFlags struct {
	size  *string
	color *string
}

func newVariantFlags(fs *flag.FlagSet) variantFlags {
	return variantFlags{
		size:  fs.String("size", "", "size variant"),
		color: fs.String("color", "", "color variant"),
	}
}

func parseSub(name string, fs *flag.FlagSet, args []string, positional int) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, name, err)
	}
	if fs.NArg() != positional {
		return fmt.Errorf("%w: %s takes %d argument(s)", errUsage, name, positional)
	}
	return nil
}

func cmdAdd(ctx context.Context, store *cart.Store, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	v := newVariantFlags(fs)
	qty := fs.Int("qty", 1, "quantity to add")
	if err := parseSub("add", fs, args, 1); err != nil {
		return err
	}

	p, err := api.GetProduct(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	res := store.Add(ctx, cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     image,
		Size:      *v.size,
		Color:     *v.color,
		Quantity:  *qty,
	})
	fmt.Fprintln(out, res.Message)
	return nil
}

func cmdRemove(ctx context.Context, store *cart.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	v := newVariantFlags(fs)
	if err := parseSub("remove", fs, args, 1); err != nil {
		return err
	}

	store.Remove(ctx, fs.Arg(0), *v.size, *v.color)
	fmt.Fprintln(out, "Removed from cart")
	return nil
}

func cmdQty(ctx context.Context, store *cart.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("qty", flag.ContinueOnError)
	v := newVariantFlags(fs)
	if err := parseSub("qty", fs, args, 2); err != nil {
		return err
	}

	n, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("%w: quantity must be a number", errUsage)
	}

	store.SetQuantity(ctx, fs.Arg(0), *v.size, *v.color, n)
	fmt.Fprintf(out, "Cart has %d item(s)\n", store.Count())
	return nil
}

func cmdShow(store *cart.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	code := fs.String("promo", "", "promo code to preview")
	if err := parseSub("show", fs, args, 0); err != nil {
		return err
	}

	if store.Len() == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}

	var promo pricing.PromoSession
	if *code != "" {
		promo.Apply(*code)
	}
	printCart(out, store.Items(), pricing.Reconcile(store.Total(), promo.Applied()))
	return nil
}

func printCart(out io.Writer, items []cart.Item, b pricing.Breakdown) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSIZE\tCOLOR\tQTY\tPRICE\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.Name, it.Size, it.Color, it.Quantity,
			pricing.FormatMoney(it.Price), pricing.FormatMoney(it.LineTotal()))
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nSubtotal: %s\n", pricing.FormatMoney(b.Subtotal))
	if b.Shipping == 0 {
		fmt.Fprintln(out, "Shipping: Free")
	} else {
		fmt.Fprintf(out, "Shipping: %s\n", pricing.FormatMoney(b.Shipping))
	}
	if b.Discount > 0 {
		fmt.Fprintf(out, "Discount: -%s\n", pricing.FormatMoney(b.Discount))
	}
	fmt.Fprintf(out, "Total:    %s\n", pricing.FormatMoney(b.Total))
}

func cmdPromo(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: promo takes 1 argument", errUsage)
	}

	var promo pricing.PromoSession
	if promo.Apply(args[0]) {
		fmt.Fprintln(out, "Promo code applied: 10% off")
		return nil
	}
	fmt.Fprintln(out, "Invalid promo code")
	return nil
}

func cmdCheckout(ctx context.Context, store *cart.Store, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var c order.CustomerDetails
	fs.StringVar(&c.Name, "name", "", "customer name")
	fs.StringVar(&c.Email, "email", "", "customer email")
	fs.StringVar(&c.Address, "address", "", "shipping address")
	fs.StringVar(&c.Phone, "phone", "", "phone number")
	code := fs.String("promo", "", "promo code")
	if err := parseSub("checkout", fs, args, 0); err != nil {
		return err
	}

	var promo pricing.PromoSession
	if *code != "" && !promo.Apply(*code) {
		fmt.Fprintln(out, "Invalid promo code, continuing without discount")
	}

	o, err := api.Checkout(ctx, store, &promo, c)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("order was not placed: %s", apiErr.Message)
		}
		return err
	}

	fmt.Fprintf(out, "Order placed: %s\nTotal: %s\n", o.ID, pricing.FormatMoney(o.TotalPrice))
	return nil
}
