package sqlrepo

import (
	"time"

	"github.com/lib/pq"
)

type predictionRunTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	Season    int        `db:"season"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type predictionRunInsertModel struct {
	PublicID  string    `db:"public_id"`
	Season    int       `db:"season"`
	CreatedAt time.Time `db:"created_at"`
}

type predictionRowTableModel struct {
	ID            int64          `db:"id"`
	RunID         string         `db:"run_public_id"`
	TableName     string         `db:"table_name"`
	Races         pq.Int64Array  `db:"races"`
	Position      int            `db:"position"`
	RowKey        string         `db:"row_key"`
	AthleteID     string         `db:"athlete_id"`
	Name          string         `db:"name"`
	Nation        string         `db:"nation"`
	NationCode    string         `db:"nation_code"`
	Gender        string         `db:"gender"`
	Price         float64        `db:"price"`
	HasPrice      bool           `db:"has_price"`
	Probabilities string         `db:"probabilities"`
	Points        string         `db:"points"`
	Combined      float64        `db:"combined"`
	Place         int            `db:"place"`
	Imputed       bool           `db:"imputed"`
	Provenance    string         `db:"provenance"`
	Quota         int            `db:"quota"`
	IsHostNation  bool           `db:"is_host_nation"`
	IsTeam        bool           `db:"is_team"`
	Members       pq.StringArray `db:"members"`
	CreatedAt     time.Time      `db:"created_at"`
	DeletedAt     *time.Time     `db:"deleted_at"`
}

type predictionRowInsertModel struct {
	RunID         string         `db:"run_public_id"`
	TableName     string         `db:"table_name"`
	Races         pq.Int64Array  `db:"races"`
	Position      int            `db:"position"`
	RowKey        string         `db:"row_key"`
	AthleteID     string         `db:"athlete_id"`
	Name          string         `db:"name"`
	Nation        string         `db:"nation"`
	NationCode    string         `db:"nation_code"`
	Gender        string         `db:"gender"`
	Price         float64        `db:"price"`
	HasPrice      bool           `db:"has_price"`
	Probabilities string         `db:"probabilities"`
	Points        string         `db:"points"`
	Combined      float64        `db:"combined"`
	Place         int            `db:"place"`
	Imputed       bool           `db:"imputed"`
	Provenance    string         `db:"provenance"`
	Quota         int            `db:"quota"`
	IsHostNation  bool           `db:"is_host_nation"`
	IsTeam        bool           `db:"is_team"`
	Members       pq.StringArray `db:"members"`
}
