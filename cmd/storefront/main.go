package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sonarshop/storefront/config"
	"github.com/sonarshop/storefront/internal/app"
	"github.com/sonarshop/storefront/internal/cart"
	"github.com/sonarshop/storefront/internal/catalog"
	"github.com/sonarshop/storefront/internal/domain"
	"github.com/sonarshop/storefront/internal/order"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the schema, then reload the seed catalog")
	asJSON   = flag.Bool("json", false, "print results as JSON")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const usage = `usage: storefront [-c storefront.yml] [-initdb] [-json] <command> [args]

commands:
  migrate                              create or update the schema and load the seed catalog
  products [term]                      list active products, optionally matching term
  categories                           list categories
  brands                               list distinct brands
  top [n]                              list top selling products
  cart <user-id>                       show the user's cart
  add <user-id> <product-id> [qty]     add a product to the cart
  update <user-id> <product-id> <qty>  set a line quantity, 0 removes it
  remove <user-id> <product-id>        remove a line
  clear <user-id>                      empty the cart
  orders <user-id>                     list the user's orders, newest first
  order <order-number>                 show an order and its items
`

func main() {
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if err := run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 && !*initdb {
		flag.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		return err
	}
	if err := cfg.InitDirs(); err != nil {
		return err
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		return err
	}
	defer application.Release()

	if *initdb {
		if err := application.InitDb(); err != nil {
			return err
		}
		zap.S().Info("database reinitialized")
		if len(args) == 0 {
			return nil
		}
	}

	cli, err := newCommands(application.DB(), cfg.System.NodeID, os.Stdout, *asJSON)
	if err != nil {
		return err
	}
	defer cli.out.Flush()
	return cli.dispatch(ctx, args[0], args[1:])
}

type commands struct {
	db      *gorm.DB
	catalog *catalog.Service
	cart    *cart.Service
	orders  *order.Store
	out     *tabwriter.Writer
	json    bool
}

// newCommands wires the services over db. Order numbers are issued from the
// snowflake node nodeID.
func newCommands(db *gorm.DB, nodeID int64, out io.Writer, asJSON bool) (*commands, error) {
	numbers, err := order.NewNumberGenerator(nodeID)
	if err != nil {
		return nil, err
	}
	return &commands{
		db:      db,
		catalog: catalog.NewService(db),
		cart:    cart.NewService(db),
		orders:  order.NewStore(db, numbers),
		out:     tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
		json:    asJSON,
	}, nil
}

// emit writes v as indented JSON in json mode, otherwise runs table.
func (c *commands) emit(v interface{}, table func()) error {
	if !c.json {
		table()
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

func (c *commands) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		// Init has already migrated and seeded
		fmt.Fprintln(c.out, "schema up to date")
		return nil
	case "products":
		return c.products(ctx, strings.Join(args, " "))
	case "categories":
		return c.categories(ctx)
	case "brands":
		return c.brands(ctx)
	case "top":
		n := catalog.DefaultTopSellingCount
		if len(args) > 0 {
			v, err := cast.ToIntE(args[0])
			if err != nil {
				return errors.Wrap(err, "count")
			}
			n = v
		}
		return c.top(ctx, n)
	case "cart":
		user, err := c.user(ctx, args, 1)
		if err != nil {
			return err
		}
		return c.show(ctx, user)
	case "add":
		user, err := c.user(ctx, args, 2)
		if err != nil {
			return err
		}
		pid, err := cast.ToInt64E(args[1])
		if err != nil {
			return errors.Wrap(err, "product id")
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = cast.ToIntE(args[2]); err != nil {
				return errors.Wrap(err, "quantity")
			}
		}
		return c.result(ctx, user, c.cart.AddToCart(ctx, user, pid, qty))
	case "update":
		user, err := c.user(ctx, args, 3)
		if err != nil {
			return err
		}
		pid, err := cast.ToInt64E(args[1])
		if err != nil {
			return errors.Wrap(err, "product id")
		}
		qty, err := cast.ToIntE(args[2])
		if err != nil {
			return errors.Wrap(err, "quantity")
		}
		return c.result(ctx, user, c.cart.UpdateCartItem(ctx, user, pid, qty))
	case "remove":
		user, err := c.user(ctx, args, 2)
		if err != nil {
			return err
		}
		pid, err := cast.ToInt64E(args[1])
		if err != nil {
			return errors.Wrap(err, "product id")
		}
		return c.result(ctx, user, c.cart.RemoveFromCart(ctx, user, pid))
	case "clear":
		user, err := c.user(ctx, args, 1)
		if err != nil {
			return err
		}
		return c.result(ctx, user, c.cart.ClearCart(ctx, user))
	case "orders":
		user, err := c.user(ctx, args, 1)
		if err != nil {
			return err
		}
		return c.listOrders(ctx, user)
	case "order":
		if len(args) < 1 {
			return errors.New("expected an order number")
		}
		return c.showOrder(ctx, args[0])
	default:
		flag.Usage()
		return errors.Errorf("unknown command %q", cmd)
	}
}

func (c *commands) products(ctx context.Context, term string) error {
	products, err := c.catalog.SearchProducts(ctx, catalog.SearchFilter{Term: term})
	if err != nil {
		return err
	}
	return c.printProducts(products)
}

func (c *commands) top(ctx context.Context, n int) error {
	products, err := c.catalog.ListTopSellingProducts(ctx, n)
	if err != nil {
		return err
	}
	return c.printProducts(products)
}

func (c *commands) printProducts(products []domain.Product) error {
	return c.emit(products, func() {
		fmt.Fprintln(c.out, "ID\tNAME\tBRAND\tCATEGORY\tPRICE\tSTOCK")
		for _, p := range products {
			category := ""
			if p.Category != nil {
				category = p.Category.Name
			}
			fmt.Fprintf(c.out, "%d\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Brand, category, p.Price.StringFixed(2), p.StockQuantity)
		}
	})
}

func (c *commands) categories(ctx context.Context) error {
	categories, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	return c.emit(categories, func() {
		fmt.Fprintln(c.out, "ID\tNAME\tDESCRIPTION")
		for _, cat := range categories {
			fmt.Fprintf(c.out, "%d\t%s\t%s\n", cat.ID, cat.Name, cat.Description)
		}
	})
}

func (c *commands) brands(ctx context.Context) error {
	brands, err := c.catalog.ListDistinctBrands(ctx)
	if err != nil {
		return err
	}
	return c.emit(brands, func() {
		for _, b := range brands {
			fmt.Fprintln(c.out, b)
		}
	})
}

func (c *commands) show(ctx context.Context, userID string) error {
	sc, err := c.cart.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return c.emit(sc, func() {
		fmt.Fprintln(c.out, "PRODUCT\tNAME\tQTY\tPRICE\tLINE TOTAL")
		for i := range sc.Items {
			it := &sc.Items[i]
			name := ""
			if it.Product != nil {
				name = it.Product.Name
			}
			fmt.Fprintf(c.out, "%d\t%s\t%d\t%s\t%s\n", it.ProductID, name, it.Quantity, it.Price.StringFixed(2), it.TotalPrice().StringFixed(2))
		}
		fmt.Fprintf(c.out, "\t\t%d\t\t%s\n", sc.TotalItems(), sc.TotalAmount().StringFixed(2))
	})
}

func (c *commands) result(ctx context.Context, userID string, ok bool) error {
	if !ok {
		return errors.New("cart unchanged, see log for details")
	}
	count, err := c.cart.GetCartItemCount(ctx, userID)
	if err != nil {
		return err
	}
	total, err := c.cart.GetCartTotal(ctx, userID)
	if err != nil {
		return err
	}
	summary := struct {
		Items int             `json:"items"`
		Total decimal.Decimal `json:"total"`
	}{count, total}
	return c.emit(summary, func() {
		fmt.Fprintf(c.out, "ok\titems %d\ttotal %s\n", count, total.StringFixed(2))
	})
}

func (c *commands) listOrders(ctx context.Context, userID string) error {
	orders, err := c.orders.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return c.emit(orders, func() {
		fmt.Fprintln(c.out, "NUMBER\tSTATUS\tTOTAL\tCREATED")
		for _, o := range orders {
			fmt.Fprintf(c.out, "%s\t%s\t%s\t%s\n", o.OrderNumber, o.Status, o.TotalAmount.StringFixed(2), o.CreatedAt.Format(time.RFC3339))
		}
	})
}

func (c *commands) showOrder(ctx context.Context, number string) error {
	o, ok, err := c.orders.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("order %s not found", number)
	}
	return c.emit(o, func() {
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", o.OrderNumber, o.Status, o.ShippingName)
		fmt.Fprintln(c.out, "PRODUCT\tNAME\tQTY\tPRICE\tLINE TOTAL")
		for i := range o.Items {
			it := &o.Items[i]
			fmt.Fprintf(c.out, "%d\t%s\t%d\t%s\t%s\n", it.ProductID, it.ProductName, it.Quantity, it.Price.StringFixed(2), it.TotalPrice().StringFixed(2))
		}
		fmt.Fprintf(c.out, "\t\t\t\t%s\n", o.TotalAmount.StringFixed(2))
	})
}

// user checks the argument count and makes sure args[0] names a user row.
func (c *commands) user(ctx context.Context, args []string, want int) (string, error) {
	if len(args) < want {
		return "", errors.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	id := strings.TrimSpace(args[0])
	u := domain.User{ID: id, UserName: id, CreatedAt: c.db.NowFunc()}
	if err := domain.Validate(&u); err != nil {
		return "", errors.Wrap(err, "user id")
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error
	if err != nil {
		return "", errors.Wrapf(err, "ensure user %s", id)
	}
	return id, nil
}
