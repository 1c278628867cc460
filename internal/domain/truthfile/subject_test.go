package truthfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleSubject() SubjectParams {
	return SubjectParams{
		BaseNumber:   "10001",
		Prefix:       "QUO",
		Customer:     "Acme",
		Project:      "Riverside",
		Location:     "Leeds",
		ProductType:  "Doors",
		DeliveryType: "Collected",
	}
}

func TestEmailSubject(t *testing.T) {
	p := sampleSubject()
	assert.Equal(t, "[10001-QUO] → CUS Acme → Riverside → Leeds → Doors → Collected — SFG Aluminium —", EmailSubject(p))

	p.CustomerOrderNumber = "PO-77"
	assert.Equal(t, "[10001-QUO] → CUS Acme → Riverside → Leeds → Doors → Collected — SFG Aluminium — Customer Order nr PO-77", EmailSubject(p))

	p = sampleSubject()
	p.Location = " "
	assert.Contains(t, EmailSubject(p), "→ MISSING →")
}

func TestValidateEmailSubject(t *testing.T) {
	p := sampleSubject()

	result := ValidateEmailSubject(EmailSubject(p), p)
	assert.True(t, result.Valid)
	assert.False(t, result.RedAlert)

	result = ValidateEmailSubject("Re: your windows", p)
	assert.False(t, result.Valid)
	assert.True(t, result.RedAlert)
	assert.Equal(t, EmailSubject(p), result.Generated)
}

func TestFilenames(t *testing.T) {
	p := FilenameParams{BaseNumber: "10001", Prefix: "QUO", Revision: "B", PONumber: "4411", Category: "Glass"}

	assert.Equal(t, "10001-QUO_Quote_B.pdf", Filename(FileQuote, p))
	assert.Equal(t, "10001-QUO_Customer_PO_4411.pdf", Filename(FilePO, p))
	assert.Equal(t, "10001-SFG-ENQ_RFQ_Glass.pdf", Filename(FileRFQ, p))

	for _, kind := range []FileKind{FileQuote, FilePO, FileRFQ} {
		assert.True(t, ValidateFilename(Filename(kind, p), kind, p).Valid, kind)
	}

	result := ValidateFilename("10001-QUO_Quote_MISSING.pdf", FileQuote, FilenameParams{BaseNumber: "10001", Prefix: "QUO"})
	assert.False(t, result.Valid)
	assert.True(t, result.RedAlert)

	assert.False(t, ValidateFilename("x.pdf", "invoice", p).Valid)
}
