package sqlrepo

import (
	"database/sql"
	"time"
)

type ledgerEntryTableModel struct {
	ID           int64           `db:"id"`
	AthleteID    string          `db:"athlete_id"`
	Name         string          `db:"name"`
	Nation       string          `db:"nation"`
	Sex          string          `db:"sex"`
	Season       int             `db:"season"`
	RaceDate     time.Time       `db:"race_date"`
	Age          sql.NullFloat64 `db:"age"`
	Exp          float64         `db:"exp"`
	Elo          sql.NullFloat64 `db:"elo"`
	DistanceElo  sql.NullFloat64 `db:"distance_elo"`
	DistanceCElo sql.NullFloat64 `db:"distance_c_elo"`
	DistanceFElo sql.NullFloat64 `db:"distance_f_elo"`
	SprintElo    sql.NullFloat64 `db:"sprint_elo"`
	SprintCElo   sql.NullFloat64 `db:"sprint_c_elo"`
	SprintFElo   sql.NullFloat64 `db:"sprint_f_elo"`
	ClassicElo   sql.NullFloat64 `db:"classic_elo"`
	FreestyleElo sql.NullFloat64 `db:"freestyle_elo"`
	Discipline   string          `db:"discipline"`
	Technique    string          `db:"technique"`
	Level        string          `db:"level"`
	Home         bool            `db:"home"`
	IsTeam       bool            `db:"is_team"`
	Points       sql.NullFloat64 `db:"points"`
	CreatedAt    time.Time       `db:"created_at"`
	DeletedAt    *time.Time      `db:"deleted_at"`
}

type ledgerEntryInsertModel struct {
	AthleteID    string          `db:"athlete_id"`
	Name         string          `db:"name"`
	Nation       string          `db:"nation"`
	Sex          string          `db:"sex"`
	Season       int             `db:"season"`
	RaceDate     time.Time       `db:"race_date"`
	Age          sql.NullFloat64 `db:"age"`
	Exp          float64         `db:"exp"`
	Elo          sql.NullFloat64 `db:"elo"`
	DistanceElo  sql.NullFloat64 `db:"distance_elo"`
	DistanceCElo sql.NullFloat64 `db:"distance_c_elo"`
	DistanceFElo sql.NullFloat64 `db:"distance_f_elo"`
	SprintElo    sql.NullFloat64 `db:"sprint_elo"`
	SprintCElo   sql.NullFloat64 `db:"sprint_c_elo"`
	SprintFElo   sql.NullFloat64 `db:"sprint_f_elo"`
	ClassicElo   sql.NullFloat64 `db:"classic_elo"`
	FreestyleElo sql.NullFloat64 `db:"freestyle_elo"`
	Discipline   string          `db:"discipline"`
	Technique    string          `db:"technique"`
	Level        string          `db:"level"`
	Home         bool            `db:"home"`
	IsTeam       bool            `db:"is_team"`
	Points       sql.NullFloat64 `db:"points"`
}
