package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/urfave/cli/v2"

	"github.com/ssqa/storefront/internal/api"
	"github.com/ssqa/storefront/internal/auth"
	internalcli "github.com/ssqa/storefront/internal/cli"
	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/database"
	"github.com/ssqa/storefront/internal/repository"
)

// ServeCommand returns the serve command
func ServeCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the local storefront",
		Description: heredoc.Doc(`
			Serves the shop and account pages along with the wc/v3 REST API
			from the catalog in STOREFRONT_CATALOG. Orders are stored in the
			SQLite file STOREFRONT_DB.
		`),
		Action: func(c *cli.Context) error {
			deps, err := internalcli.BuildServerDependencies(config.LoadServerConfig(getenv))
			if err != nil {
				return err
			}
			return internalcli.RunServe(deps)
		},
	}
}

// apiClient builds a REST client for the store ENV points at
func apiClient(getenv func(string) string) (*api.HTTPClient, error) {
	cfg, err := config.Load(getenv)
	if err != nil {
		return nil, err
	}
	apiCfg, err := config.LoadAPIConfig(getenv)
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.BaseURL, apiCfg)
}

// SeedUserCommand returns the seed-user command
func SeedUserCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "seed-user",
		Usage: "Create a customer with one completed order",
		Description: heredoc.Doc(`
			Registers a random customer through the REST API, orders the
			beanie for them and prints the .env lines the order history
			tests read.
		`),
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "product-id", Usage: "product to order, the beanie when 0"},
		},
		Action: func(c *cli.Context) error {
			client, err := apiClient(getenv)
			if err != nil {
				return err
			}
			customer, err := client.CreateCustomer()
			if err != nil {
				return err
			}
			order, err := client.CreateOrderForCustomer(customer.ID, c.Int64("product-id"))
			if err != nil {
				return err
			}
			log.Printf("Order %d created for customer %d", order.ID(), customer.ID)

			fmt.Fprintf(c.App.Writer, "USER_WITH_ONE_ORDER_USERNAME=%s\n", customer.Email)
			fmt.Fprintf(c.App.Writer, "USER_WITH_ONE_ORDER_PASSWORD=%s\n", customer.Password)
			return nil
		},
	}
}

// CouponCommand returns the coupon command
func CouponCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "coupon",
		Usage: "Create or delete coupons",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a 100% coupon and print its code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "coupon code, random when empty"},
					&cli.IntFlag{Name: "length", Value: api.DefaultCouponLength, Usage: "length of a random code"},
					&cli.BoolFlag{Name: "expired", Usage: "create the coupon already expired"},
				},
				Action: func(c *cli.Context) error {
					client, err := apiClient(getenv)
					if err != nil {
						return err
					}
					code, err := client.CreateCoupon(c.String("code"), c.Int("length"), c.Bool("expired"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, code)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a coupon by code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Required: true},
				},
				Action: func(c *cli.Context) error {
					client, err := apiClient(getenv)
					if err != nil {
						return err
					}
					return client.DeleteCouponByCode(c.String("code"))
				},
			},
		},
	}
}

// OrderCommand returns the order command
func OrderCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "order",
		Usage: "Print an order row from the store database as JSON",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Required: true, Usage: "order number"},
		},
		Action: func(c *cli.Context) error {
			dbCfg, err := config.LoadDatabaseConfig(getenv)
			if err != nil {
				return err
			}
			db, err := database.Open(dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			row, err := repository.NewOrderRepository(db).GetOrderByNumber(c.Int64("id"))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(row)
		},
	}
}

// LoginCommand returns the login command
func LoginCommand(getenv func(string) string) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in over HTTP and print the cookies the store sets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Usage: "defaults to MY_ACCOUNT_SMOKE_USERNAME"},
			&cli.StringFlag{Name: "password", Usage: "defaults to MY_ACCOUNT_SMOKE_PASSWORD"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(getenv)
			if err != nil {
				return err
			}
			username, password := c.String("username"), c.String("password")
			if username == "" || password == "" {
				creds, err := config.LoadSmokeAccount(getenv)
				if err != nil {
					return err
				}
				username, password = creds.Username, creds.Password
			}

			cookies, err := auth.Login(cfg.BaseURL, username, password)
			if err != nil {
				return err
			}
			for _, cookie := range cookies {
				fmt.Fprintln(c.App.Writer, cookie.Name)
			}
			return nil
		},
	}
}
