// Package sepa renders pain.008.001.02 direct-debit initiation files. The
// renderer is pure: it takes batch data and produces XML, it never touches
// the database.
package sepa

import (
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/errorutil"
	"github.com/dojoware/collect/internal/timeutil"
)

const namespace = "urn:iso:std:iso:20022:tech:xsd:pain.008.001.02"

var (
	ErrNoItems            = errorutil.New("sepa file needs at least one transaction")
	ErrCreditorIncomplete = errorutil.New("creditor identity is incomplete")
)

// Creditor is the tenant's identity on the collecting side of the file.
type Creditor struct {
	Name     string
	IBAN     string
	BIC      string
	SchemeID string
}

// Item is one direct debit against one signed mandate.
type Item struct {
	EndToEndID       string
	Amount           decimal.Decimal
	MandateReference string
	SignedAt         timeutil.Date
	AccountHolder    string
	IBAN             string
	BIC              string
	Remittance       string
}

// File is everything one pain.008 document needs.
type File struct {
	MessageID      string
	CreatedAt      time.Time
	CollectionDate timeutil.Date
	Creditor       Creditor
	Items          []Item
}

// Render produces the XML document. The control sum is the exact decimal
// sum of the item amounts; banks reject files where header and transaction
// totals disagree.
func Render(file File) ([]byte, error) {
	if len(file.Items) == 0 {
		return nil, ErrNoItems
	}
	if file.Creditor.Name == "" || file.Creditor.IBAN == "" || file.Creditor.SchemeID == "" {
		return nil, ErrCreditorIncomplete
	}

	total := decimal.Zero
	for _, item := range file.Items {
		total = total.Add(item.Amount)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", namespace)
	initn := root.CreateElement("CstmrDrctDbtInitn")

	grpHdr := initn.CreateElement("GrpHdr")
	grpHdr.CreateElement("MsgId").SetText(file.MessageID)
	grpHdr.CreateElement("CreDtTm").SetText(file.CreatedAt.UTC().Format("2006-01-02T15:04:05"))
	grpHdr.CreateElement("NbOfTxs").SetText(decimal.NewFromInt(int64(len(file.Items))).String())
	grpHdr.CreateElement("CtrlSum").SetText(total.StringFixed(2))
	grpHdr.CreateElement("InitgPty").CreateElement("Nm").SetText(file.Creditor.Name)

	pmtInf := initn.CreateElement("PmtInf")
	pmtInf.CreateElement("PmtInfId").SetText(file.MessageID)
	pmtInf.CreateElement("PmtMtd").SetText("DD")
	pmtInf.CreateElement("BtchBookg").SetText("true")
	pmtInf.CreateElement("NbOfTxs").SetText(decimal.NewFromInt(int64(len(file.Items))).String())
	pmtInf.CreateElement("CtrlSum").SetText(total.StringFixed(2))

	pmtTpInf := pmtInf.CreateElement("PmtTpInf")
	pmtTpInf.CreateElement("SvcLvl").CreateElement("Cd").SetText("SEPA")
	pmtTpInf.CreateElement("LclInstrm").CreateElement("Cd").SetText("CORE")
	pmtTpInf.CreateElement("SeqTp").SetText("RCUR")

	pmtInf.CreateElement("ReqdColltnDt").SetText(file.CollectionDate.String())
	pmtInf.CreateElement("Cdtr").CreateElement("Nm").SetText(file.Creditor.Name)
	pmtInf.CreateElement("CdtrAcct").CreateElement("Id").CreateElement("IBAN").SetText(file.Creditor.IBAN)

	cdtrAgt := pmtInf.CreateElement("CdtrAgt").CreateElement("FinInstnId")
	if file.Creditor.BIC != "" {
		cdtrAgt.CreateElement("BIC").SetText(file.Creditor.BIC)
	} else {
		cdtrAgt.CreateElement("Othr").CreateElement("Id").SetText("NOTPROVIDED")
	}

	pmtInf.CreateElement("ChrgBr").SetText("SLEV")

	schemeID := pmtInf.CreateElement("CdtrSchmeId").CreateElement("Id").
		CreateElement("PrvtId").CreateElement("Othr")
	schemeID.CreateElement("Id").SetText(file.Creditor.SchemeID)
	schemeID.CreateElement("SchmeNm").CreateElement("Prtry").SetText("SEPA")

	for _, item := range file.Items {
		tx := pmtInf.CreateElement("DrctDbtTxInf")
		tx.CreateElement("PmtId").CreateElement("EndToEndId").SetText(item.EndToEndID)

		amt := tx.CreateElement("InstdAmt")
		amt.CreateAttr("Ccy", "EUR")
		amt.SetText(item.Amount.StringFixed(2))

		mndt := tx.CreateElement("DrctDbtTx").CreateElement("MndtRltdInf")
		mndt.CreateElement("MndtId").SetText(item.MandateReference)
		mndt.CreateElement("DtOfSgntr").SetText(item.SignedAt.String())

		dbtrAgt := tx.CreateElement("DbtrAgt").CreateElement("FinInstnId")
		if item.BIC != "" {
			dbtrAgt.CreateElement("BIC").SetText(item.BIC)
		} else {
			dbtrAgt.CreateElement("Othr").CreateElement("Id").SetText("NOTPROVIDED")
		}

		tx.CreateElement("Dbtr").CreateElement("Nm").SetText(item.AccountHolder)
		tx.CreateElement("DbtrAcct").CreateElement("Id").CreateElement("IBAN").SetText(item.IBAN)

		if item.Remittance != "" {
			tx.CreateElement("RmtInf").CreateElement("Ustrd").SetText(item.Remittance)
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
