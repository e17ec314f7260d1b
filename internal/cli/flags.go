package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// kindValue is a pflag.Value accepting "leaf" or "group".
type kindValue struct {
	kind domain.ElementKind
}

var _ pflag.Value = (*kindValue)(nil)

func newKindValue(def domain.ElementKind) *kindValue {
	return &kindValue{kind: def}
}

func (v *kindValue) String() string { return string(v.kind) }

func (v *kindValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !domain.ValidElementKinds[s] {
		return fmt.Errorf("must be one of leaf, group")
	}
	v.kind = domain.ElementKind(s)
	return nil
}

func (v *kindValue) Type() string { return "kind" }

// dateValue is an optional YYYY-MM-DD flag; unset leaves the pointer nil.
type dateValue struct {
	t *time.Time
}

var _ pflag.Value = (*dateValue)(nil)

func (v *dateValue) String() string {
	if v.t == nil {
		return ""
	}
	return v.t.Format(dateLayout)
}

func (v *dateValue) Set(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("expected YYYY-MM-DD")
	}
	v.t = &t
	return nil
}

func (v *dateValue) Type() string { return "date" }

// addVersionFlag registers the --version flag shared by scheduling commands.
func addVersionFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "version", "", "Scheduling version (defaults to the configured version)")
}

// addOrderFlag registers the required --order flag.
func addOrderFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "order", "o", "", "Order code")
	_ = cmd.MarkFlagRequired("order")
}
