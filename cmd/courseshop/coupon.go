package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courseshop/internal/repos"
)

type couponOptions struct {
	Code     string
	Percent  string
	Amount   string
	MaxUses  int
	Expires  string
	Inactive bool
}

func newCouponCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Manage discount codes",
	}
	cmd.AddCommand(newCouponCreateCommand(root))
	return cmd
}

func newCouponCreateCommand(root *rootOptions) *cobra.Command {
	opts := &couponOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a percentage or fixed-amount coupon",
		Example: `  courseshop coupon create --code SPRING25 --percent 25 --max-uses 100
  courseshop coupon create --code FLAT5 --amount 5 --expires 2026-12-31T23:59:59Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.toNewCoupon()
			if err != nil {
				return err
			}
			_, logger, db, err := bootstrap(root)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer db.Close()

			c, err := repos.NewCouponRepo(db).CreateCoupon(cmd.Context(), in)
			if err != nil {
				return err
			}
			logger.Info("coupon created", zap.String("coupon_id", c.ID), zap.String("code", c.Code))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Code)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Code, "code", "", "coupon code (stored upper case)")
	f.StringVar(&opts.Percent, "percent", "", "percentage off, 0 < p <= 100")
	f.StringVar(&opts.Amount, "amount", "", "fixed amount off")
	f.IntVar(&opts.MaxUses, "max-uses", 0, "usage cap; 0 means unlimited")
	f.StringVar(&opts.Expires, "expires", "", "expiry as RFC 3339")
	f.BoolVar(&opts.Inactive, "inactive", false, "create the coupon disabled")
	_ = cmd.MarkFlagRequired("code")
	cmd.MarkFlagsMutuallyExclusive("percent", "amount")
	cmd.MarkFlagsOneRequired("percent", "amount")
	return cmd
}

// toNewCoupon parses flag strings; range checks happen in NewCoupon.Validate.
func (o *couponOptions) toNewCoupon() (repos.NewCoupon, error) {
	in := repos.NewCoupon{Code: o.Code, Inactive: o.Inactive}
	if o.Percent != "" {
		p, err := decimal.NewFromString(o.Percent)
		if err != nil {
			return in, fmt.Errorf("--percent: %w", err)
		}
		in.Percent = &p
	}
	if o.Amount != "" {
		a, err := decimal.NewFromString(o.Amount)
		if err != nil {
			return in, fmt.Errorf("--amount: %w", err)
		}
		in.Amount = &a
	}
	if o.MaxUses != 0 {
		n := o.MaxUses
		in.MaxUses = &n
	}
	if o.Expires != "" {
		t, err := time.Parse(time.RFC3339, o.Expires)
		if err != nil {
			return in, fmt.Errorf("--expires: %w", err)
		}
		in.ExpiresAt = &t
	}
	return in, in.Validate()
}
