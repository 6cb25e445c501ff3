// adminctl is a small operator CLI over the console API, useful for
// poking at the same endpoints the admin console screens use.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fieldserve/adminsdk/api"
	"github.com/fieldserve/adminsdk/attachment"
	"github.com/fieldserve/adminsdk/internal/config"
	"github.com/fieldserve/adminsdk/serviceorder"
)

func main() {
	var (
		configPath = flag.String("config", "adminsdk.yaml", "path to config file")
		resource   = flag.String("resource", "service_orders", "resource to target")
		list       = flag.Bool("list", false, "list records")
		get        = flag.String("get", "", "fetch one record by id")
		remove     = flag.String("delete", "", "delete one record by id")
		page       = flag.Int("page", 1, "page number")
		perPage    = flag.Int("per-page", 20, "records per page")
		search     = flag.String("search", "", "search term")
	)
	flag.Parse()

	cfg := config.LoadOrDefault(*configPath)
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	client, err := api.New(api.Config{
		BaseURL:           cfg.BaseURL,
		Tokens:            api.StaticToken(cfg.APIToken),
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		logrus.Fatal(err)
	}
	exec := api.NewExecutor(client, api.ExecutorConfig{
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
	})

	resources := map[string]*api.Resource{
		"companies":      api.NewCompanies(exec),
		"sites":          api.NewSites(exec),
		"business_units": api.NewBusinessUnits(exec),
		"clients":        api.NewClients(exec),
		"currencies":     api.NewCurrencies(exec),
		"users":          api.NewUsers(exec),
	}
	orders := serviceorder.NewClient(exec, attachment.NewUploader(client))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch {
	case *list:
		params := api.ListParams{Page: *page, PerPage: *perPage, Search: *search}
		var out any
		var err error
		if *resource == "service_orders" {
			out, err = orders.List(ctx, params)
		} else if res, ok := resources[*resource]; ok {
			out, err = res.List(ctx, params)
		} else {
			err = fmt.Errorf("unknown resource %q", *resource)
		}
		finish(out, err)
	case *get != "":
		var rec api.Record
		var err error
		if *resource == "service_orders" {
			rec, err = orders.Get(ctx, *get)
		} else if res, ok := resources[*resource]; ok {
			rec, err = res.Get(ctx, *get)
		} else {
			err = fmt.Errorf("unknown resource %q", *resource)
		}
		if err == nil && rec == nil {
			logrus.Warnf("%s %s not found", *resource, *get)
			os.Exit(1)
		}
		finish(rec, err)
	case *remove != "":
		var err error
		if *resource == "service_orders" {
			err = orders.Delete(ctx, *remove)
		} else if res, ok := resources[*resource]; ok {
			err = res.Delete(ctx, *remove)
		} else {
			err = fmt.Errorf("unknown resource %q", *resource)
		}
		finish(map[string]string{"deleted": *remove}, err)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func finish(out any, err error) {
	if err != nil {
		logrus.Fatal(err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logrus.Fatal(err)
	}
}
