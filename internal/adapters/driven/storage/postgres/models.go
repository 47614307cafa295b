package postgres

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

// decisionRow is the gorm model of the decisions table.
type decisionRow struct {
	TextID       string         `gorm:"column:text_id;primaryKey"`
	Chambre      string         `gorm:"column:chambre;not null;default:'';index:idx_decisions_chambre"`
	Titre        string         `gorm:"column:titre;not null;default:''"`
	DateDecision *time.Time     `gorm:"column:date_decision;type:date"`
	Contenu      string         `gorm:"column:contenu;not null;check:chk_decisions_contenu,contenu <> ''"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	Revision     string         `gorm:"column:revision;not null;default:''"`
	ContentHash  string         `gorm:"column:content_hash;not null"`
	IngestedAt   time.Time      `gorm:"column:ingested_at;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (decisionRow) TableName() string { return "decisions" }

// scoredRow is a search hit.
type scoredRow struct {
	decisionRow
	Score float64 `gorm:"column:score"`
}

// archiveRunRow is the gorm model of the archive_runs table.
type archiveRunRow struct {
	Digest      string    `gorm:"column:digest;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	RunID       string    `gorm:"column:run_id;not null"`
	Discovered  int       `gorm:"column:discovered;not null;default:0"`
	Inserted    int       `gorm:"column:inserted;not null;default:0"`
	Updated     int       `gorm:"column:updated;not null;default:0"`
	Duplicate   int       `gorm:"column:duplicate;not null;default:0"`
	Superseded  int       `gorm:"column:superseded;not null;default:0"`
	Rejected    int       `gorm:"column:rejected;not null;default:0"`
	Failed      int       `gorm:"column:failed;not null;default:0"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

func (archiveRunRow) TableName() string { return "archive_runs" }

func toRow(d *domain.Decision) (decisionRow, error) {
	meta := datatypes.JSON("{}")
	if d.Metadata != nil {
		b, err := json.Marshal(d.Metadata)
		if err != nil {
			return decisionRow{}, err
		}
		meta = datatypes.JSON(b)
	}

	var date *time.Time
	if d.DateDecision != nil {
		t := d.DateDecision.UTC()
		date = &t
	}

	return decisionRow{
		TextID:       d.TextID,
		Chambre:      d.Chambre,
		Titre:        d.Titre,
		DateDecision: date,
		Contenu:      d.Contenu,
		Metadata:     meta,
		Revision:     d.Revision,
		ContentHash:  d.ContentHash,
	}, nil
}

func (r decisionRow) toDomain() (domain.Decision, error) {
	d := domain.Decision{
		TextID:      r.TextID,
		Chambre:     r.Chambre,
		Titre:       r.Titre,
		Contenu:     r.Contenu,
		Revision:    r.Revision,
		ContentHash: r.ContentHash,
		IngestedAt:  r.IngestedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DateDecision != nil {
		t := time.Date(r.DateDecision.Year(), r.DateDecision.Month(), r.DateDecision.Day(), 0, 0, 0, 0, time.UTC)
		d.DateDecision = &t
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		if err := json.Unmarshal(r.Metadata, &d.Metadata); err != nil {
			return domain.Decision{}, err
		}
	}
	return d, nil
}

func (r archiveRunRow) toDomain() domain.ArchiveRun {
	return domain.ArchiveRun{
		Digest:      r.Digest,
		Name:        r.Name,
		RunID:       r.RunID,
		Discovered:  r.Discovered,
		Inserted:    r.Inserted,
		Updated:     r.Updated,
		Duplicate:   r.Duplicate,
		Superseded:  r.Superseded,
		Rejected:    r.Rejected,
		Failed:      r.Failed,
		ProcessedAt: r.ProcessedAt,
	}
}
