package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
)

type DefaultProcessRepository struct {
	db *gorm.DB
}

func NewProcessRepository(db *gorm.DB) *DefaultProcessRepository {
	return &DefaultProcessRepository{db: db}
}

func (d *DefaultProcessRepository) FindByID(id int64) (*entity.Process, error) {
	var process entity.Process
	err := d.db.First(&process, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (d *DefaultProcessRepository) FindByIDWithDocuments(id int64) (*entity.Process, error) {
	var process entity.Process
	err := d.db.Preload("Documents").First(&process, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (d *DefaultProcessRepository) FindByNumber(number string) (*entity.Process, error) {
	var process entity.Process
	err := d.db.Where("number = ?", number).First(&process).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &process, nil
}

type ProcessFilter struct {
	Limit      int
	Offset     int
	StatusCode int
	Number     string
}

func (d *DefaultProcessRepository) List(f ProcessFilter) ([]*entity.Process, error) {
	q := d.db.Limit(f.Limit).Offset(f.Offset).Order("id")
	if f.StatusCode != 0 {
		q = q.Where("status_code = ?", f.StatusCode)
	}
	if f.Number != "" {
		q = q.Where("number = ?", f.Number)
	}

	var processes []*entity.Process
	err := q.Find(&processes).Error
	if err != nil {
		return nil, err
	}
	return processes, nil
}

func (d *DefaultProcessRepository) Save(process *entity.Process) error {
	return d.db.Save(process).Error
}

// UpsertByNumber writes a pulled process without disturbing local-only state.
// Re-delivery of the same record must not create duplicate rows.
func (d *DefaultProcessRepository) UpsertByNumber(process *entity.Process) error {
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"partner_code", "status_code", "status_description", "error_category", "raw_data", "updated_at",
		}),
	}).Create(process).Error
}

// UpsertDocument is keyed by (process, partner code). StoragePath is
// deliberately excluded from the update set: materialization is monotonic
// and sync must never clear it.
func (d *DefaultProcessRepository) UpsertDocument(doc *entity.ProcessDocument) error {
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "process_id"}, {Name: "partner_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "documento_url", "tamanho_bytes", "updated_at",
		}),
	}).Create(doc).Error
}

func (d *DefaultProcessRepository) SaveDocument(doc *entity.ProcessDocument) error {
	return d.db.Save(doc).Error
}

// FindUnmaterialized returns up to limit documents that still point at a
// partner URL and have not been copied to durable storage.
func (d *DefaultProcessRepository) FindUnmaterialized(limit int) ([]*entity.ProcessDocument, error) {
	var docs []*entity.ProcessDocument
	err := d.db.Where("documento_url <> '' AND storage_path = ''").
		Order("id").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LinkClient attaches a client system to a process through the join table.
// Appending an existing association is a no-op.
func (d *DefaultProcessRepository) LinkClient(processID, clientID int64) error {
	return d.db.Model(&entity.Process{ID: processID}).
		Association("Clients").
		Append(&entity.ClientSystem{ID: clientID})
}

// UpdateStatus writes the status columns only, clearing any rejection
// classification along with the description.
func (d *DefaultProcessRepository) UpdateStatus(id int64, status entity.ProcessStatus, description string) error {
	return d.db.Model(&entity.Process{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status_code":        status,
			"status_description": description,
			"error_category":     "",
			"updated_at":         utils.NowUTC(),
		}).Error
}
