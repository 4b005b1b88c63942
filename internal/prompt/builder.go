package prompt

import (
	"strconv"
	"strings"

	"github.com/punchamoorthee/estatedocs/internal/domain"
)

// SystemInstruction is sent as the system role of every generation.
const SystemInstruction = "You are a real estate document assistant generating legally formatted contracts for Florida."

// Build renders req into the user instruction for the generation backend.
// The output depends only on req.
func Build(req domain.DocumentRequest) string {
	var b strings.Builder

	b.WriteString("Generate a professional Florida real estate contract styled after a FAR/BAR agreement. ")
	b.WriteString("Use legal formatting, numbered sections, and clear, formal language expected in a standard real estate transaction.\n\n")
	b.WriteString("Include the following fields:\n\n")

	field(&b, "Document Type", req.DocumentType)
	field(&b, "Buyer Name", req.BuyerName)
	field(&b, "Seller Name", req.SellerName)
	field(&b, "Client Name", req.ClientName)
	field(&b, "Property Address", req.PropertyAddress)
	field(&b, "Purchase Price", "$"+req.PurchasePrice)
	field(&b, "Closing Date", req.ClosingDate)
	field(&b, "Party Role", req.PartyRole)
	field(&b, "State", req.PropertyState)
	field(&b, "Transaction Type", req.TransactionType)

	b.WriteString("- Optional Clauses:\n")
	clause(&b, "Inspection Contingency", req.ClauseInspection)
	clause(&b, "Financing Contingency", req.ClauseFinancing)
	clause(&b, "Appraisal Contingency", req.ClauseAppraisal)
	clause(&b, "HOA Disclosure", req.ClauseHOA)

	field(&b, "Additional Instructions", req.AdditionalInstructions)

	b.WriteString("\nInclude all required legal disclosures and a signature section for both buyer and seller. ")
	b.WriteString("Start with a title header, and mark the preview as 'WATERMARKED' if requested.\n")

	return b.String()
}

func field(b *strings.Builder, label, value string) {
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func clause(b *strings.Builder, name string, on bool) {
	b.WriteString("    • ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(strconv.FormatBool(on))
	b.WriteByte('\n')
}
