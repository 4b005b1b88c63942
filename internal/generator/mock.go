package generator

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/punchamoorthee/estatedocs/internal/domain"
)

// Mock answers without a network call. It reads the "- Label: value" lines of
// the prompt and lays them out as a short contract.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Generate(ctx context.Context, p string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, ctx.Err())
	default:
	}

	fields := map[string]string{}
	var clauses []string
	sc := bufio.NewScanner(strings.NewReader(p))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "- "):
			label, value, ok := strings.Cut(strings.TrimPrefix(line, "- "), ":")
			if ok {
				fields[label] = strings.TrimSpace(value)
			}
		case strings.HasPrefix(line, "• "):
			clauses = append(clauses, strings.TrimPrefix(line, "• "))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", strings.ToUpper(strings.ReplaceAll(fields["Document Type"], "_", " ")))
	fmt.Fprintf(&b, "1. PARTIES. %s (\"Buyer\") and %s (\"Seller\") agree that Seller shall sell and Buyer shall buy the Property described below.\n",
		fields["Buyer Name"], fields["Seller Name"])
	fmt.Fprintf(&b, "2. PROPERTY. The real property located at %s, State of %s.\n", fields["Property Address"], fields["State"])
	fmt.Fprintf(&b, "3. PURCHASE PRICE. The purchase price is %s, payable at closing.\n", fields["Purchase Price"])
	fmt.Fprintf(&b, "4. CLOSING. Closing shall occur on %s.\n", fields["Closing Date"])
	fmt.Fprintf(&b, "5. TRANSACTION. %s; prepared for %s acting as %s.\n", fields["Transaction Type"], fields["Client Name"], fields["Party Role"])
	for i, c := range clauses {
		fmt.Fprintf(&b, "6.%d. %s\n", i+1, c)
	}
	if extra := fields["Additional Instructions"]; extra != "" {
		fmt.Fprintf(&b, "7. ADDITIONAL TERMS. %s\n", extra)
	}
	b.WriteString("\nDISCLOSURES. Radon gas, lead-based paint and flood zone disclosures are incorporated by reference.\n\n")
	b.WriteString("BUYER: ______________________  Date: __________\n")
	b.WriteString("SELLER: _____________________  Date: __________\n")
	return b.String(), nil
}
