package accountinghttp

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	_, err := s.buf.WriteString(line + "\r\n")
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// writeLedgerCSV writes the collected rows of st. Product ledgers carry
// quantity and cost columns instead of debit and credit.
func writeLedgerCSV(w io.Writer, st *ledgers.Statement, rows []ledgers.Row) error {
	q := st.Query()
	streamer := newCSVStreamer(w)
	for _, line := range []string{
		fmt.Sprintf("# Ledger: %s %d", q.Kind, q.SubjectID),
		fmt.Sprintf("# Company: %d", q.CompanyID),
		fmt.Sprintf("# Range: %s..%s", shared.FormatDate(q.Range.From), shared.FormatDate(q.Range.To)),
		fmt.Sprintf("# Opening: %s", shared.FormatAmount(st.OpeningBalance())),
	} {
		if err := streamer.writeComment(line); err != nil {
			return err
		}
	}
	product := q.Kind == ledgers.KindProduct
	header := []string{"Date", "Entry", "Line", "Narration", "Source", "Debit", "Credit", "Balance"}
	if product {
		header = []string{"Date", "Movement", "Narration", "Source", "Qty In", "Qty Out", "Unit Cost", "Avg Cost", "On Hand", "Stock Value"}
	}
	if err := streamer.writeRow(header); err != nil {
		return err
	}
	for _, row := range rows {
		var rec []string
		if product {
			rec = []string{
				shared.FormatDate(row.Date),
				strconv.FormatInt(row.EntryID, 10),
				row.Narration,
				row.SourceDocumentType,
				row.QtyIn.String(),
				row.QtyOut.String(),
				shared.FormatAmount(row.UnitCost),
				shared.FormatAmount(row.AvgCost),
				row.RunningBalance.String(),
				shared.FormatAmount(row.StockValue),
			}
		} else {
			rec = []string{
				shared.FormatDate(row.Date),
				strconv.FormatInt(row.EntryID, 10),
				strconv.FormatInt(row.LineID, 10),
				row.Narration,
				row.SourceDocumentType,
				shared.FormatAmount(row.Debit),
				shared.FormatAmount(row.Credit),
				shared.FormatAmount(row.RunningBalance),
			}
		}
		if err := streamer.writeRow(rec); err != nil {
			return err
		}
	}
	return streamer.Flush()
}
