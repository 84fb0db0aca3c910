// Package boards generates the printed Lotería boards: every board holds
// distinct items and across the set each item appears a fixed number of times.
package boards

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGame        = "Lotería Barranquilla"
	DefaultBoards      = 15
	DefaultRows        = 4
	DefaultColumns     = 4
	DefaultMaxAttempts = 1000
)

var ErrInvalidSpec = errors.New("invalid board spec")

// Item is a deck card and how many boards it is printed on
type Item struct {
	Name      string `yaml:"name"`
	Frequency int    `yaml:"frequency"`
}

// Spec describes a board set
type Spec struct {
	Game        string `yaml:"game"`
	Boards      int    `yaml:"boards"`
	Rows        int    `yaml:"rows"`
	Columns     int    `yaml:"columns"`
	MaxAttempts int    `yaml:"max_attempts"`
	Items       []Item `yaml:"items"`
}

var defaultItems = []string{
	"01 PATACÓN DE GUINEO VERDE", "02 ALEGRÍA DE COCO Y ANÍS", "03 BOLLO DE MAÍZ",
	"04 CABALLITO DE PAPAYA", "05 SANCOCHO DE PESCADO", "06 MAZAMORRA DE GUINEO",
	"07 COCADA DE PANELA Y COCO", "08 MOJARRA FRITA", "09 TINAJERO",
	"10 PIEDRA DE FILTRAR", "11 TINAJA DE BARRO", "12 PONCHERA",
	"13 MECEDORA DE MIMBRE", "14 FOGÓN DE LEÑA", "15 TOTUMA Y CUCHARA DE PALO",
	"16 MANTEL DE HULE", "17 ESTACIÓN DEL FERROCARRIL", "18 TRANVÍA DE BARRANQUILLA",
	"19 EL VAPOR DAVID ARANGO", "20 ROBLE MORADO EN FLOR", "21 MANGLARES DE LA CIÉNAGA",
	"22 BOSQUE SECO TROPICAL", "23 BOCAS DE CENIZA", "24 CALLES DE BARRIO ABAJO",
	"25 LA MARIMONDA", "26 LA PALENQUERA", "27 VENDEDOR DE AGUACATES",
	"28 LA NOVIA DE BARRANQUILLA", "29 ALEJANDRO OBREGÓN", "30 ENRIQUE GRAU",
	"31 PESCADOR DE ATARRAYA", "32 AZAFATE", "33 AJIACO SANTAFEREÑO",
	"34 TRANVÍA DE BOGOTÁ", "35 OLLETA Y MOLINILLO", "36 TAMAL SANTAFEREÑO",
}

// DefaultSpec is the Barranquilla deck: 15 boards of 4x4, the first 24 items
// on 7 boards each and the last 12 on 6
func DefaultSpec() *Spec {
	items := make([]Item, len(defaultItems))
	for i, name := range defaultItems {
		freq := 7
		if i >= 24 {
			freq = 6
		}
		items[i] = Item{Name: name, Frequency: freq}
	}
	return &Spec{
		Game:        DefaultGame,
		Boards:      DefaultBoards,
		Rows:        DefaultRows,
		Columns:     DefaultColumns,
		MaxAttempts: DefaultMaxAttempts,
		Items:       items,
	}
}

// LoadSpec reads a YAML spec. Omitted fields take the defaults; omitted items
// keep the default deck.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board spec: %w", err)
	}
	return ParseSpec(data)
}

func ParseSpec(data []byte) (*Spec, error) {
	spec := DefaultSpec()
	spec.Items = nil
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("failed to parse board spec: %w", err)
	}
	if len(spec.Items) == 0 {
		spec.Items = DefaultSpec().Items
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *Spec) BoardSize() int {
	return s.Rows * s.Columns
}

// PoolSize is the number of item copies across all boards
func (s *Spec) PoolSize() int {
	total := 0
	for _, item := range s.Items {
		total += item.Frequency
	}
	return total
}

// Validate checks that the frequencies can fill every slot exactly once
func (s *Spec) Validate() error {
	if s.Boards <= 0 || s.Rows <= 0 || s.Columns <= 0 {
		return fmt.Errorf("%w: boards, rows and columns must be positive", ErrInvalidSpec)
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalidSpec)
	}

	seen := make(map[string]bool, len(s.Items))
	for _, item := range s.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: item with empty name", ErrInvalidSpec)
		}
		if seen[item.Name] {
			return fmt.Errorf("%w: duplicate item %q", ErrInvalidSpec, item.Name)
		}
		seen[item.Name] = true
		if item.Frequency < 0 || item.Frequency > s.Boards {
			return fmt.Errorf("%w: item %q frequency %d outside 0..%d", ErrInvalidSpec, item.Name, item.Frequency, s.Boards)
		}
	}

	if slots := s.Boards * s.BoardSize(); s.PoolSize() != slots {
		return fmt.Errorf("%w: pool has %d items for %d slots", ErrInvalidSpec, s.PoolSize(), slots)
	}
	return nil
}
