package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/prediction"
)

const documentVersion = "1.0"

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var tracer = otel.Tracer("fantasy-skiing/internal/interfaces/output")

type documentEnvelope struct {
	Version   string      `json:"version"`
	RunID     string      `json:"runId"`
	Season    int         `json:"season"`
	CreatedAt time.Time   `json:"createdAt"`
	Tables    []tableView `json:"tables"`
}

type tableView struct {
	Name  string    `json:"name"`
	Races []int     `json:"races"`
	Rows  []rowView `json:"rows"`
}

type rowView struct {
	Name          string              `json:"name"`
	ID            string              `json:"id"`
	Nation        string              `json:"nation"`
	Price         *float64            `json:"price"`
	Probabilities map[string]*float64 `json:"probabilities"`
	Points        map[string]float64  `json:"points"`
	Combined      float64             `json:"combined"`
	Place         int                 `json:"place"`
	Imputed       bool                `json:"imputed"`
	Provenance    string              `json:"provenance,omitempty"`
	Members       []string            `json:"members,omitempty"`
}

// WriteJSON encodes every table of a run as one document. Unknown
// probabilities and missing prices are null.
func WriteJSON(ctx context.Context, w io.Writer, run prediction.Run, tables []prediction.Table) error {
	_, span := tracer.Start(ctx, "output.WriteJSON")
	defer span.End()

	doc := documentEnvelope{
		Version:   documentVersion,
		RunID:     run.ID,
		Season:    run.Season,
		CreatedAt: run.CreatedAt.UTC(),
		Tables:    make([]tableView, 0, len(tables)),
	}
	for _, t := range tables {
		doc.Tables = append(doc.Tables, toTableView(t))
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(doc); err != nil {
		return fmt.Errorf("encode prediction document: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write prediction document: %w", err)
	}
	return nil
}

// WriteCSV writes one table with a header row. Unknown probabilities and
// missing prices are empty cells.
func WriteCSV(ctx context.Context, w io.Writer, table prediction.Table) error {
	_, span := tracer.Start(ctx, "output.WriteCSV")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := cw.Write(Header(table)); err != nil {
		return fmt.Errorf("write header of %s: %w", table.Name, err)
	}
	for _, r := range table.Rows {
		if err := cw.Write(record(table, r)); err != nil {
			return fmt.Errorf("write row %s of %s: %w", r.Key, table.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", table.Name, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", table.Name, err)
	}
	return nil
}

// Header lists the CSV columns of a table: identity, one probability and
// one points column per race, then the ranking.
func Header(table prediction.Table) []string {
	cols := make([]string, 0, 7+2*len(table.Races))
	cols = append(cols, "name", "id", "nation", "price")
	for _, race := range table.Races {
		cols = append(cols, prediction.ProbabilityColumn(race))
	}
	for _, race := range table.Races {
		cols = append(cols, prediction.PointsColumn(race))
	}
	cols = append(cols, "combined", "place", "imputed")
	if isTeamTable(table) {
		cols = append(cols, "members")
	}
	return cols
}

func record(table prediction.Table, r prediction.Row) []string {
	rec := make([]string, 0, 8+2*len(table.Races))
	rec = append(rec, r.Name, r.ID, r.Nation, "")
	if r.HasPrice {
		rec[3] = formatFloat(r.Price)
	}
	for _, race := range table.Races {
		if v, ok := r.Probability(race).Value(); ok {
			rec = append(rec, formatFloat(v))
			continue
		}
		rec = append(rec, "")
	}
	for _, race := range table.Races {
		rec = append(rec, formatFloat(r.Points[race]))
	}
	rec = append(rec, formatFloat(r.Combined), strconv.Itoa(r.Place), strconv.FormatBool(r.Imputed))
	if isTeamTable(table) {
		rec = append(rec, strings.Join(r.Members, "; "))
	}
	return rec
}

func toTableView(t prediction.Table) tableView {
	view := tableView{Name: t.Name, Races: append([]int{}, t.Races...), Rows: make([]rowView, 0, len(t.Rows))}
	for _, r := range t.Rows {
		row := rowView{
			Name:          r.Name,
			ID:            r.ID,
			Nation:        r.Nation,
			Probabilities: make(map[string]*float64, len(t.Races)),
			Points:        make(map[string]float64, len(t.Races)),
			Combined:      r.Combined,
			Place:         r.Place,
			Imputed:       r.Imputed,
			Provenance:    string(r.Provenance),
			Members:       r.Members,
		}
		if r.HasPrice {
			price := r.Price
			row.Price = &price
		}
		for _, race := range t.Races {
			var prob *float64
			if v, ok := r.Probability(race).Value(); ok {
				prob = &v
			}
			row.Probabilities[prediction.ProbabilityColumn(race)] = prob
			row.Points[prediction.PointsColumn(race)] = r.Points[race]
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func isTeamTable(t prediction.Table) bool {
	for _, r := range t.Rows {
		if r.IsTeam {
			return true
		}
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
