package leilao

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate creates or updates every table owned by this package.
func AutoMigrate(db *gorm.DB) error {
	tables := []struct {
		name  string
		model any
	}{
		{"carros", &Carro{}},
		{"leiloeiros", &Leiloeiro{}},
		{"leiloes", &Leilao{}},
		{"lotes", &Lote{}},
		{"audit_events", &AuditEvent{}},
		{"prestacoes_contas", &PrestacaoContas{}},
	}
	for _, t := range tables {
		if err := db.AutoMigrate(t.model); err != nil {
			return fmt.Errorf("auto-migrate %s: %w", t.name, err)
		}
	}
	return nil
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return 20
	}
	if pageSize > 100 {
		return 100
	}
	return pageSize
}

// CarroStore provides CRUD operations for vehicles.
type CarroStore struct {
	db *gorm.DB
}

// NewCarroStore creates a new CarroStore.
func NewCarroStore(db *gorm.DB) *CarroStore {
	return &CarroStore{db: db}
}

// Create inserts a new vehicle.
func (s *CarroStore) Create(c *Carro) error {
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("create carro: %w", err)
	}
	return nil
}

// Get retrieves a vehicle by id. Returns nil, nil if it does not exist.
func (s *CarroStore) Get(id string) (*Carro, error) {
	var c Carro
	err := s.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get carro: %w", err)
	}
	return &c, nil
}

// GetByPlaca retrieves a vehicle by plate. Returns nil, nil if none matches.
func (s *CarroStore) GetByPlaca(placa string) (*Carro, error) {
	var c Carro
	err := s.db.Where("placa = ?", placa).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get carro by placa: %w", err)
	}
	return &c, nil
}

// Save writes every column of the vehicle.
func (s *CarroStore) Save(c *Carro) error {
	if err := s.db.Save(c).Error; err != nil {
		return fmt.Errorf("save carro: %w", err)
	}
	return nil
}

// SetStatus updates only the status column.
func (s *CarroStore) SetStatus(id string, status CarroStatus) error {
	res := s.db.Model(&Carro{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("set carro status: %w", res.Error)
	}
	return nil
}

// TransitionStatus moves a vehicle from one status to another in a single
// conditional UPDATE. It reports false when the row was not in from, which
// is how a concurrent change to the same vehicle shows up.
func (s *CarroStore) TransitionStatus(id string, from, to CarroStatus) (bool, error) {
	res := s.db.Model(&Carro{}).Where("id = ? AND status = ?", id, from).Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("transition carro status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a vehicle by id.
func (s *CarroStore) Delete(id string) error {
	if err := s.db.Where("id = ?", id).Delete(&Carro{}).Error; err != nil {
		return fmt.Errorf("delete carro: %w", err)
	}
	return nil
}

// List returns vehicles ordered by plate, optionally filtered by status.
func (s *CarroStore) List(status CarroStatus) ([]Carro, error) {
	query := s.db.Order("placa ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var carros []Carro
	if err := query.Find(&carros).Error; err != nil {
		return nil, fmt.Errorf("list carros: %w", err)
	}
	return carros, nil
}

// LeiloeiroStore provides CRUD operations for auctioneers.
type LeiloeiroStore struct {
	db *gorm.DB
}

// NewLeiloeiroStore creates a new LeiloeiroStore.
func NewLeiloeiroStore(db *gorm.DB) *LeiloeiroStore {
	return &LeiloeiroStore{db: db}
}

// Create inserts a new auctioneer.
func (s *LeiloeiroStore) Create(l *Leiloeiro) error {
	if err := s.db.Create(l).Error; err != nil {
		return fmt.Errorf("create leiloeiro: %w", err)
	}
	return nil
}

// Get retrieves an auctioneer by id. Returns nil, nil if it does not exist.
func (s *LeiloeiroStore) Get(id string) (*Leiloeiro, error) {
	var l Leiloeiro
	err := s.db.Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get leiloeiro: %w", err)
	}
	return &l, nil
}

// Save writes every column of the auctioneer.
func (s *LeiloeiroStore) Save(l *Leiloeiro) error {
	if err := s.db.Save(l).Error; err != nil {
		return fmt.Errorf("save leiloeiro: %w", err)
	}
	return nil
}

// Delete removes an auctioneer. Auctions referencing it are left untouched.
func (s *LeiloeiroStore) Delete(id string) error {
	if err := s.db.Where("id = ?", id).Delete(&Leiloeiro{}).Error; err != nil {
		return fmt.Errorf("delete leiloeiro: %w", err)
	}
	return nil
}

// List returns all auctioneers ordered by name.
func (s *LeiloeiroStore) List() ([]Leiloeiro, error) {
	var out []Leiloeiro
	if err := s.db.Order("nome ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list leiloeiros: %w", err)
	}
	return out, nil
}

// LeilaoStore persists auctions together with their lots.
type LeilaoStore struct {
	db *gorm.DB
}

// NewLeilaoStore creates a new LeilaoStore.
func NewLeilaoStore(db *gorm.DB) *LeilaoStore {
	return &LeilaoStore{db: db}
}

func preloadLotes(db *gorm.DB) *gorm.DB {
	return db.Preload("Lotes", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("numero ASC")
	})
}

// Create inserts a new auction without touching its lots.
func (s *LeilaoStore) Create(l *Leilao) error {
	if err := s.db.Omit(clause.Associations).Create(l).Error; err != nil {
		return fmt.Errorf("create leilao: %w", err)
	}
	return nil
}

// Get retrieves an auction with its lots ordered by numero.
// Returns nil, nil if it does not exist.
func (s *LeilaoStore) Get(id string) (*Leilao, error) {
	var l Leilao
	err := preloadLotes(s.db).Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get leilao: %w", err)
	}
	l.ResultadosCompletos = ResultadosCompletos(l.Lotes)
	return &l, nil
}

// Lock holds a row lock on the auction until the surrounding transaction
// ends. SQLite has no row locks; its single writer gives the same order.
func (s *LeilaoStore) Lock(id string) error {
	var ids []string
	err := s.db.Model(&Leilao{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("lock leilao: %w", err)
	}
	return nil
}

// CountByCodigoPrefix counts auctions whose code starts with prefix.
func (s *LeilaoStore) CountByCodigoPrefix(prefix string) (int64, error) {
	var n int64
	if err := s.db.Model(&Leilao{}).Where("codigo LIKE ?", prefix+"%").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count leiloes by codigo: %w", err)
	}
	return n, nil
}

// Update writes the given columns of an auction.
func (s *LeilaoStore) Update(id string, fields map[string]any) error {
	res := s.db.Model(&Leilao{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update leilao: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an auction and its lots.
func (s *LeilaoStore) Delete(id string) error {
	if err := s.db.Where("leilao_id = ?", id).Delete(&Lote{}).Error; err != nil {
		return fmt.Errorf("delete lotes: %w", err)
	}
	if err := s.db.Where("id = ?", id).Delete(&Leilao{}).Error; err != nil {
		return fmt.Errorf("delete leilao: %w", err)
	}
	return nil
}

// List returns auctions ordered by date, newest first, with their lots.
// Either filter may be empty.
func (s *LeilaoStore) List(status LeilaoStatus, leiloeiroID string) ([]Leilao, error) {
	query := preloadLotes(s.db).Order("data DESC").Order("codigo ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if leiloeiroID != "" {
		query = query.Where("leiloeiro_id = ?", leiloeiroID)
	}
	var out []Leilao
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list leiloes: %w", err)
	}
	for i := range out {
		out[i].ResultadosCompletos = ResultadosCompletos(out[i].Lotes)
	}
	return out, nil
}

// MaxNumero returns the highest lot number of an auction, 0 when it has none.
func (s *LeilaoStore) MaxNumero(leilaoID string) (int, error) {
	var max int64
	row := s.db.Model(&Lote{}).Where("leilao_id = ?", leilaoID).Select("COALESCE(MAX(numero), 0)").Row()
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("max lote numero: %w", err)
	}
	return int(max), nil
}

// CreateLote inserts a lot.
func (s *LeilaoStore) CreateLote(l *Lote) error {
	if err := s.db.Create(l).Error; err != nil {
		return fmt.Errorf("create lote: %w", err)
	}
	return nil
}

// GetLote retrieves a lot of an auction. Returns nil, nil if it does not exist.
func (s *LeilaoStore) GetLote(leilaoID, loteID string) (*Lote, error) {
	var l Lote
	err := s.db.Where("id = ? AND leilao_id = ?", loteID, leilaoID).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lote: %w", err)
	}
	return &l, nil
}

// SaveLote writes every column of the lot.
func (s *LeilaoStore) SaveLote(l *Lote) error {
	if err := s.db.Save(l).Error; err != nil {
		return fmt.Errorf("save lote: %w", err)
	}
	return nil
}

// DeleteLote removes a lot. Remaining lots keep their numbers.
func (s *LeilaoStore) DeleteLote(leilaoID, loteID string) error {
	if err := s.db.Where("id = ? AND leilao_id = ?", loteID, leilaoID).Delete(&Lote{}).Error; err != nil {
		return fmt.Errorf("delete lote: %w", err)
	}
	return nil
}
