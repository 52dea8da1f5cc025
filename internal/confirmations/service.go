package confirmations

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/yxshee/biteback/services/api/internal/reservations"
	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

var (
	ErrInvalidReservation      = errors.New("reservation is invalid")
	ErrReservationNotConfirmed = errors.New("reservation is not confirmed")
)

type Config struct {
	ServiceName  string
	SupportEmail string
}

// Slip is a printable confirmation for one reservation.
type Slip struct {
	ReservationID string    `json:"reservation_id"`
	Number        string    `json:"number"`
	FileName      string    `json:"file_name"`
	IssuedAt      time.Time `json:"issued_at"`
	Content       []byte    `json:"-"`
}

// Service renders confirmation slips and keeps one per reservation
// revision, so a reschedule yields a fresh slip.
type Service struct {
	mu       sync.Mutex
	cfg      Config
	now      func() time.Time
	sequence int64
	issued   map[string]Slip
}

func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "BiteBack"
	}
	if strings.TrimSpace(cfg.SupportEmail) == "" {
		cfg.SupportEmail = "support@example.com"
	}

	return &Service{
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		issued: make(map[string]Slip),
	}
}

func (s *Service) Generate(reservation reservations.Reservation, restaurant restaurants.Restaurant) (Slip, error) {
	reservationID := strings.TrimSpace(reservation.ID)
	if reservationID == "" || reservation.RestaurantID != restaurant.ID {
		return Slip{}, ErrInvalidReservation
	}

	switch reservation.Status {
	case reservations.StatusConfirmed, reservations.StatusCompleted:
	default:
		return Slip{}, ErrReservationNotConfirmed
	}

	key := reservationID + "@" + reservation.UpdatedAt.UTC().Format(time.RFC3339Nano)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.issued[key]; ok {
		return existing, nil
	}

	s.sequence++
	issuedAt := s.now()
	number := fmt.Sprintf("BB-%s-%06d", issuedAt.Format("20060102"), s.sequence)

	content, err := renderSlipPDF(reservation, restaurant, number, issuedAt, s.cfg)
	if err != nil {
		return Slip{}, err
	}

	slip := Slip{
		ReservationID: reservationID,
		Number:        number,
		FileName:      fmt.Sprintf("reservation-%s.pdf", strings.ToLower(number)),
		IssuedAt:      issuedAt,
		Content:       content,
	}
	s.issued[key] = slip

	return slip, nil
}

func renderSlipPDF(reservation reservations.Reservation, restaurant restaurants.Restaurant, number string, issuedAt time.Time, cfg Config) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(number, false)
	pdf.SetAuthor(cfg.ServiceName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Reservation confirmation", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, cfg.ServiceName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, cfg.SupportEmail, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, restaurant.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if restaurant.Address != "" {
		pdf.CellFormat(0, 6, restaurant.Address, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Confirmation: %s", number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Reservation ID: %s", reservation.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Table for: %d", reservation.PartySize), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Time (UTC): %s", reservation.ReservedAt.UTC().Format("Mon 02 Jan 2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", reservation.Status), "", 1, "L", false, 0, "")
	if reservation.Notes != "" {
		pdf.MultiCell(0, 6, fmt.Sprintf("Notes: %s", reservation.Notes), "", "L", false)
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Issued at (UTC): %s", issuedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
