package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-parser/internal/filter"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

const dateLayout = time.DateOnly

type filterFlags struct {
	from, to                    string
	bookingType, bookingTypeNot string
	infoMatches, infoMatchesNot string
	lessOrEqual, greaterOrEqual string
}

func newFilterCommand(a *app) *cobra.Command {
	var pf parseFlags
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "filter [statement files or globs...]",
		Short: "Filter the booking items of parsed statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := ff.criteria()
			if err != nil {
				return err
			}

			report, err := a.parseStatements(cmd, args, &pf)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			items := criteria.Apply(report.Statements())
			for _, item := range items {
				fmt.Fprintf(out, "%s : %s : %.2f\n", item.ValueDate.Format(dateLayout), item.Type, item.Amount)
				for _, line := range item.Info {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Sum: %s\n", filter.Sum(items).StringFixed(2))
			return nil
		},
	}

	pf.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&ff.from, "from", "", "start date (inclusive), e.g. 2022-09-01")
	flags.StringVar(&ff.to, "to", "", "end date (exclusive), e.g. 2023-01-01")
	flags.StringVar(&ff.bookingType, "type", "", "keep only booking items of this type")
	flags.StringVar(&ff.bookingTypeNot, "type-not", "", "remove all booking items of this type")
	flags.StringVar(&ff.infoMatches, "info-matches", "", "keep only booking items whose info matches the regular expression")
	flags.StringVar(&ff.infoMatchesNot, "info-matches-not", "", "remove all booking items whose info matches the regular expression")
	flags.StringVar(&ff.lessOrEqual, "less-or-equal", "", "keep only booking items with an amount less or equal to this")
	flags.StringVar(&ff.greaterOrEqual, "greater-or-equal", "", "keep only booking items with an amount greater or equal to this")

	return cmd
}

func (f *filterFlags) criteria() (*filter.Criteria, error) {
	c := &filter.Criteria{}
	var err error

	if c.From, err = parseDateFlag("from", f.from); err != nil {
		return nil, err
	}
	if c.To, err = parseDateFlag("to", f.to); err != nil {
		return nil, err
	}
	if c.Type, err = parseTypeFlag("type", f.bookingType); err != nil {
		return nil, err
	}
	if c.TypeNot, err = parseTypeFlag("type-not", f.bookingTypeNot); err != nil {
		return nil, err
	}
	if c.InfoMatches, err = filter.CompileInfoPattern(f.infoMatches); err != nil {
		return nil, err
	}
	if c.InfoMatchesNot, err = filter.CompileInfoPattern(f.infoMatchesNot); err != nil {
		return nil, err
	}
	if c.LessOrEqual, err = parseAmountFlag("less-or-equal", f.lessOrEqual); err != nil {
		return nil, err
	}
	if c.GreaterOrEqual, err = parseAmountFlag("greater-or-equal", f.greaterOrEqual); err != nil {
		return nil, err
	}
	return c, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

func parseTypeFlag(name, value string) (models.BookingType, error) {
	if value == "" {
		return "", nil
	}
	t, ok := models.ParseBookingType(value)
	if !ok {
		return "", fmt.Errorf("invalid --%s booking type %q", name, value)
	}
	return t, nil
}

func parseAmountFlag(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s amount %q: %w", name, value, err)
	}
	return &d, nil
}
