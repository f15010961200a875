package ecr

import (
	"errors"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
)

var (
	ErrNoYear = errors.New("no year in ecr file name")
	ErrNoData = errors.New("no ecr data processed")
)

// FileMetadata is what an ECR export's file name tells us about its content.
type FileMetadata struct {
	FileName        string
	Year            int
	BeforePreseason bool
}

// Frame is a raw parsed spreadsheet: one header row followed by data rows.
type Frame struct {
	Header []string
	Rows   [][]string
}

func (f Frame) Empty() bool {
	return len(f.Rows) == 0
}

// RankingRecord is one normalized expert consensus ranking row.
type RankingRecord struct {
	Year            int
	BeforePreseason bool
	PlayerName      string
	Position        string
	Rank            float64
	BestRank        *float64
	WorstRank       *float64
	AvgRank         *float64
	StddevRank      *float64
	ADP             *float64
	VsADP           *float64
}

var recordColumns = []dataset.Column{
	{Name: "year", DType: "int64"},
	{Name: "before_preseason", DType: "bool"},
	{Name: "player_name", DType: "object"},
	{Name: "position", DType: "object"},
	{Name: "rank", DType: "float64"},
	{Name: "best_rank", DType: "float64"},
	{Name: "worst_rank", DType: "float64"},
	{Name: "avg_rank", DType: "float64"},
	{Name: "stddev_rank", DType: "float64"},
	{Name: "adp", DType: "float64"},
	{Name: "vs_adp", DType: "float64"},
}

// ToBatch converts normalized records into an ingestion batch for raw_ecr_rankings.
func ToBatch(records []RankingRecord) dataset.Batch {
	batch := dataset.Batch{
		Columns: append([]dataset.Column(nil), recordColumns...),
		Rows:    make([]dataset.Row, 0, len(records)),
	}
	for _, r := range records {
		batch.Rows = append(batch.Rows, dataset.Row{
			"year":             int64(r.Year),
			"before_preseason": r.BeforePreseason,
			"player_name":      r.PlayerName,
			"position":         r.Position,
			"rank":             r.Rank,
			"best_rank":        floatOrNil(r.BestRank),
			"worst_rank":       floatOrNil(r.WorstRank),
			"avg_rank":         floatOrNil(r.AvgRank),
			"stddev_rank":      floatOrNil(r.StddevRank),
			"adp":              floatOrNil(r.ADP),
			"vs_adp":           floatOrNil(r.VsADP),
		})
	}
	return batch
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

type YearCoverage struct {
	Year                   int   `db:"year"`
	TotalRecords           int64 `db:"total_records"`
	BeforePreseasonRecords int64 `db:"before_preseason_records"`
	AfterPreseasonRecords  int64 `db:"after_preseason_records"`
}

type MissingData struct {
	PlayerNames int64 `db:"missing_player_names"`
	Positions   int64 `db:"missing_positions"`
	Ranks       int64 `db:"missing_ranks"`
	AvgRanks    int64 `db:"missing_avg_ranks"`
}

type DataQuality struct {
	MinYear               int64 `db:"min_year"`
	MaxYear               int64 `db:"max_year"`
	UniqueYears           int64 `db:"unique_years"`
	YearsWithPrePreseason int64 `db:"years_with_prepreseason"`
	YearsWithPreseason    int64 `db:"years_with_preseason"`
}

// Verification is the post-load sanity report for raw_ecr_rankings.
type Verification struct {
	TotalRecords int64
	YearCoverage []YearCoverage
	Missing      MissingData
	Quality      DataQuality
}

// FrameReader parses one spreadsheet export into a raw frame.
type FrameReader interface {
	ReadFrame(path string) (Frame, error)
}
