package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/cart"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/transport"
	pkgdb "github.com/Skotchmaster/art_shop/pkg/db"
	"github.com/Skotchmaster/art_shop/pkg/shopclient"
)

const usage = `usage: artshop [-api URL] [-cart FILE] <command> [args]

commands:
  products [-status available|sold]
  login -email EMAIL -password PASSWORD
  cart add PRODUCT_ID [QTY] | remove PRODUCT_ID | clear | show
  checkout [-site URL]
`

func main() {
	api := flag.String("api", envOr("ARTSHOP_API", "http://localhost:8080"), "storefront base URL")
	cartFile := flag.String("cart", envOr("ARTSHOP_CART", defaultCartFile()), "local cart database")
	token := flag.String("token", os.Getenv("ARTSHOP_TOKEN"), "access token for checkout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := shopclient.NewClient(*api, *token)
	args := flag.Args()

	var err error
	switch args[0] {
	case "products":
		err = runProducts(ctx, client, args[1:])
	case "login":
		err = runLogin(ctx, client, args[1:])
	case "cart":
		err = withCart(*cartFile, func(h *cart.Holder) error { return runCart(ctx, h, client, args[1:]) })
	case "checkout":
		err = withCart(*cartFile, func(h *cart.Holder) error { return runCheckout(ctx, h, client, args[1:]) })
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultCartFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "artshop-cart.db"
	}
	return filepath.Join(dir, "artshop", "cart.db")
}

func openCart(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cart dir: %w", err)
		}
	}
	db, err := pkgdb.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.CartItem{}); err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate cart: %w", err)
	}
	return db, nil
}

func withCart(path string, fn func(h *cart.Holder) error) error {
	db, err := openCart(path)
	if err != nil {
		return err
	}
	defer pkgdb.Close(db)
	return fn(cart.NewHolder(cart.NewGormStore(db, cart.LocalOwner)))
}

func runProducts(ctx context.Context, client *shopclient.Client, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := client.ListProducts(ctx, *status)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tSTATUS")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", p.ID, p.Title, p.PriceDisplay, p.Currency, p.Status)
	}
	return w.Flush()
}

func runLogin(ctx context.Context, client *shopclient.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("export ARTSHOP_TOKEN=%s\n", res.AccessToken)
	return nil
}

func runCart(ctx context.Context, h *cart.Holder, client *shopclient.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("cart: missing subcommand")
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return errors.New("cart add: missing product id")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("cart add: %w", err)
		}
		qty := 1
		if len(args) > 2 {
			if _, err := fmt.Sscanf(args[2], "%d", &qty); err != nil {
				return fmt.Errorf("cart add: bad quantity %q", args[2])
			}
		}
		items, err := h.Add(ctx, id, qty)
		if err != nil {
			return err
		}
		return printCart(ctx, client, items)
	case "remove":
		if len(args) < 2 {
			return errors.New("cart remove: missing product id")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("cart remove: %w", err)
		}
		items, err := h.Remove(ctx, id)
		if err != nil {
			return err
		}
		return printCart(ctx, client, items)
	case "clear":
		return h.Clear(ctx)
	case "show":
		items, err := h.Read(ctx)
		if err != nil {
			return err
		}
		return printCart(ctx, client, items)
	default:
		return fmt.Errorf("cart: unknown subcommand %q", args[0])
	}
}

// printCart shows titles from the catalog when it is reachable and plain ids otherwise.
func printCart(ctx context.Context, client *shopclient.Client, items []cart.Item) error {
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return nil
	}

	titles := map[uuid.UUID]string{}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	if products, err := client.GetProducts(ctx, ids); err == nil {
		for _, p := range products {
			titles[p.ID] = fmt.Sprintf("%s (%s %s, %s)", p.Title, p.PriceDisplay, p.Currency, p.Status)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tQTY\tDETAILS")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%d\t%s\n", it.ProductID, it.Quantity, titles[it.ProductID])
	}
	return w.Flush()
}

func runCheckout(ctx context.Context, h *cart.Holder, client *shopclient.Client, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	site := fs.String("site", "", "site URL for the success and cancel pages")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := h.Read(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("cart is empty")
	}

	req := transport.CheckoutRequest{SiteURL: *site}
	for _, it := range items {
		req.Items = append(req.Items, transport.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	res, err := client.Checkout(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("order %s created\n", res.OrderID)
	if res.URL != nil {
		fmt.Printf("complete the payment at %s\n", *res.URL)
	}
	fmt.Println("run `artshop cart clear` once the success page confirms the payment")
	return nil
}
