package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

const DefaultTextbeltURL = "https://textbelt.com/text"

// NotificationService tells patients about their appointments by SMS
// (Textbelt) and e-mail. Every send runs in its own goroutine so it never
// blocks the API response.
type NotificationService struct {
	httpClient  *http.Client
	textbeltURL string
	textbeltKey string
	email       EmailSender
	logger      *logging.Logger
	timeout     time.Duration
	wg          sync.WaitGroup
}

func NewNotificationService(textbeltURL, textbeltKey string, email EmailSender, logger *logging.Logger) *NotificationService {
	if textbeltURL == "" {
		textbeltURL = DefaultTextbeltURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotificationService{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		textbeltURL: textbeltURL,
		textbeltKey: textbeltKey,
		email:       email,
		logger:      logger,
		timeout:     15 * time.Second,
	}
}

// AppointmentEvent is the kind of change a patient is told about.
type AppointmentEvent string

const (
	EventBooked    AppointmentEvent = "booked"
	EventConfirmed AppointmentEvent = "confirmed"
	EventCancelled AppointmentEvent = "cancelled"
)

// NotifyAppointment queues an SMS and an e-mail for patient about apt.
func (s *NotificationService) NotifyAppointment(patient *models.User, apt *models.Appointment, event AppointmentEvent) {
	if s == nil || patient == nil || apt == nil {
		return
	}
	subject, body := appointmentMessage(patient, apt, event)
	log := s.logger.With("appointment_id", apt.ID.Hex(), "event", string(event))

	if patient.Phone != "" && s.textbeltKey != "" {
		s.goSend(func(ctx context.Context) {
			if err := s.sendSMS(ctx, patient.Phone, body); err != nil {
				log.Warn("sms not sent", "error", err)
			}
		})
	} else {
		log.Debug("sms skipped", "has_phone", patient.Phone != "")
	}

	if s.email != nil && patient.Email != "" {
		s.goSend(func(ctx context.Context) {
			err := s.email.Send(ctx, EmailMessage{
				To:      patient.Email,
				ToName:  patient.FullName(),
				Subject: subject,
				Text:    body,
			})
			if err != nil {
				log.Warn("appointment email not sent", "error", err)
			}
		})
	}
}

// Wait blocks until queued notifications finish. Used at shutdown and in tests.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) goSend(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func appointmentMessage(patient *models.User, apt *models.Appointment, event AppointmentEvent) (string, string) {
	when := fmt.Sprintf("%s at %s", apt.Date.Format("Jan 2"), apt.Time)
	doctor := apt.DoctorName
	if doctor == "" {
		doctor = "your doctor"
	}
	switch event {
	case EventConfirmed:
		return "Appointment confirmed", fmt.Sprintf("Appointment Confirmed: %s with %s on %s.", patient.FullName(), doctor, when)
	case EventCancelled:
		return "Appointment cancelled", fmt.Sprintf("Appointment Cancelled: your visit with %s on %s was cancelled.", doctor, when)
	default:
		return "Appointment requested", fmt.Sprintf("Appointment Requested: %s with %s on %s. We will confirm shortly.", patient.FullName(), doctor, when)
	}
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *NotificationService) sendSMS(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.textbeltKey,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.textbeltURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("services: textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result textbeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("services: textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("services: textbelt rejected sms: %s", result.Error)
	}
	s.logger.Info("sms sent", "provider", "textbelt")
	return nil
}
