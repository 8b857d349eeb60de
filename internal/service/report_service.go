package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ignatzorin/findperson-backend/internal/geocode"
	"github.com/ignatzorin/findperson-backend/internal/goroutine"
	"github.com/ignatzorin/findperson-backend/internal/logger"
	"github.com/ignatzorin/findperson-backend/internal/models"
	"github.com/ignatzorin/findperson-backend/internal/pkg/apperror"
	"github.com/ignatzorin/findperson-backend/internal/repository"
	"github.com/ignatzorin/findperson-backend/internal/validation"
)

// ReportStore описывает зависимости сервиса от хранилища заявок.
type ReportStore interface {
	Insert(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Report, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListMissing(ctx context.Context) ([]models.Report, error)
	ListFound(ctx context.Context) ([]models.Report, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Report, error)
	FindNear(ctx context.Context, center models.GeoPoint, maxMeters float64) ([]models.Report, error)
	ListUnresolved(ctx context.Context) ([]models.Report, error)
}

// Geocoder разрешает свободный текст адреса в координаты.
type Geocoder interface {
	Resolve(ctx context.Context, freeText string) (geocode.Point, error)
}

// PhotoUploader сохраняет фотографию и возвращает публичный URL.
type PhotoUploader interface {
	Upload(ctx context.Context, suggestedName string, data []byte) (string, error)
}

// ReportNotifier рассылает событие о новой заявке подключённым клиентам.
type ReportNotifier interface {
	ReportCreated(report *models.Report)
}

// DefaultNearDistanceKm — радиус поиска по умолчанию для "рядом со мной".
const DefaultNearDistanceKm = 20.0

// ReportService оркестрирует создание, изменение и выборку заявок.
type ReportService struct {
	store    ReportStore
	geocoder Geocoder
	photos   PhotoUploader
	notifier ReportNotifier
}

// NewReportService создаёт сервис заявок.
func NewReportService(store ReportStore, geocoder Geocoder, photos PhotoUploader) *ReportService {
	return &ReportService{
		store:    store,
		geocoder: geocoder,
		photos:   photos,
	}
}

// SetNotifier подключает рассылку событий о новых заявках.
func (s *ReportService) SetNotifier(notifier ReportNotifier) {
	s.notifier = notifier
}

// CreateReportInput содержит данные новой заявки.
type CreateReportInput struct {
	Name             string
	Age              int
	Gender           string
	LastSeenLocation string
	Description      string
	ContactPhone     string
	Photo            []byte
}

// UpdateReportInput содержит изменяемые поля заявки. Nil означает
// "поле не передано" — в отличие от пустого значения.
type UpdateReportInput struct {
	Name             *string
	Age              *int
	Gender           *string
	LastSeenLocation *string
	Description      *string
	ContactPhone     *string
	Photo            []byte
}

// Create проводит заявку через весь конвейер: валидация, геокодирование,
// загрузка фото, запись. Создание атомарно: любой сбой до вставки
// оставляет хранилище нетронутым.
func (s *ReportService) Create(ctx context.Context, ownerID string, in CreateReportInput) (*models.Report, error) {
	if len(in.Photo) == 0 {
		return nil, apperror.ErrPhotoRequired
	}

	if err := s.validateCreateInput(in); err != nil {
		return nil, err
	}

	// Геокодируем до загрузки фото: так сбой геокодера не оставляет
	// осиротевших файлов в Cloudinary.
	point, err := s.resolveLocation(ctx, in.LastSeenLocation)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.photos.Upload(ctx, in.Name, in.Photo)
	if err != nil {
		return nil, apperror.ErrStorageFailure.WithCause(err)
	}

	report := &models.Report{
		UserID:           ownerID,
		Name:             strings.TrimSpace(in.Name),
		Age:              in.Age,
		Gender:           strings.TrimSpace(in.Gender),
		PhotoURL:         photoURL,
		LastSeenLocation: strings.TrimSpace(in.LastSeenLocation),
		Location:         models.NewGeoPoint(point.Lng, point.Lat),
		Description:      strings.TrimSpace(in.Description),
		ContactPhone:     strings.TrimSpace(in.ContactPhone),
		Status:           models.StatusMissing,
		CreatedAt:        nowUTC(),
	}

	if err := s.store.Insert(ctx, report); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		// Рассылка не должна задерживать ответ клиенту.
		created := *report
		goroutine.SafeGo(func() {
			s.notifier.ReportCreated(&created)
		})
	}

	return report, nil
}

// Update применяет изменения владельца. Если передан новый адрес и он
// отличается от сохранённого — выполняется повторное геокодирование;
// его сбой отклоняет обновление целиком, частичное применение полей
// недопустимо: текстовый адрес и геометрия не должны расходиться.
func (s *ReportService) Update(ctx context.Context, id primitive.ObjectID, actorID string, in UpdateReportInput) (*models.Report, error) {
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if report.UserID != actorID {
		return nil, apperror.ErrNotOwner
	}

	fields := bson.M{}

	if in.Name != nil {
		if err := validation.ValidateLength("имя", *in.Name, validation.MinNameLength, validation.MaxNameLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		if err := validation.ValidateAge(*in.Age); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		fields["age"] = *in.Age
	}
	if in.Gender != nil {
		if err := validation.ValidateNonEmpty("пол", *in.Gender); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		fields["gender"] = strings.TrimSpace(*in.Gender)
	}
	if in.Description != nil {
		if err := validation.ValidateLength("описание", *in.Description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ContactPhone != nil {
		fields["contact_phone"] = strings.TrimSpace(*in.ContactPhone)
	}

	if in.LastSeenLocation != nil {
		newLocation := strings.TrimSpace(*in.LastSeenLocation)
		if err := validation.ValidateNonEmpty("место последней встречи", newLocation); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		if err := validation.ValidateLength("место последней встречи", newLocation, 0, validation.MaxLocationLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}

		// Повторное геокодирование только при реальном изменении адреса.
		if newLocation != report.LastSeenLocation {
			point, err := s.resolveLocation(ctx, newLocation)
			if err != nil {
				return nil, err
			}
			fields["last_seen_location"] = newLocation
			fields["location"] = models.NewGeoPoint(point.Lng, point.Lat)
		}
	}

	if len(in.Photo) > 0 {
		name := report.Name
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		photoURL, err := s.photos.Upload(ctx, name, in.Photo)
		if err != nil {
			return nil, apperror.ErrStorageFailure.WithCause(err)
		}
		fields["photo_url"] = photoURL
	}

	if len(fields) == 0 {
		return normalizeStatus(report), nil
	}

	updated, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err)
	}

	return normalizeStatus(updated), nil
}

// SetStatus переводит заявку между статусами Missing и Found.
// Переход разрешён только владельцу; история переходов не хранится.
func (s *ReportService) SetStatus(ctx context.Context, id primitive.ObjectID, actorID string, status string) (*models.Report, error) {
	if !models.IsValidStatus(status) {
		return nil, apperror.ErrInvalidStatus
	}

	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if report.UserID != actorID {
		return nil, apperror.ErrNotOwner
	}

	updated, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, storeErr(err)
	}

	return normalizeStatus(updated), nil
}

// Delete удаляет заявку владельца.
func (s *ReportService) Delete(ctx context.Context, id primitive.ObjectID, actorID string) error {
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}

	if report.UserID != actorID {
		return apperror.ErrNotOwner
	}

	return storeErr(s.store.Delete(ctx, id))
}

// Get возвращает одну заявку.
func (s *ReportService) Get(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return normalizeStatus(report), nil
}

// ListMissing возвращает активные заявки, новые первыми.
func (s *ReportService) ListMissing(ctx context.Context) ([]models.Report, error) {
	reports, err := s.store.ListMissing(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeStatuses(reports), nil
}

// ListFound возвращает найденных, новые первыми.
func (s *ReportService) ListFound(ctx context.Context) ([]models.Report, error) {
	reports, err := s.store.ListFound(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeStatuses(reports), nil
}

// ListMine возвращает заявки пользователя независимо от статуса.
func (s *ReportService) ListMine(ctx context.Context, ownerID string) ([]models.Report, error) {
	reports, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return normalizeStatuses(reports), nil
}

// Near возвращает активные заявки в радиусе distanceKm от точки,
// ближайшие первыми. Нулевой радиус заменяется дефолтным.
func (s *ReportService) Near(ctx context.Context, lat, lng, distanceKm float64) ([]models.Report, error) {
	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if distanceKm == 0 {
		distanceKm = DefaultNearDistanceKm
	}
	if err := validation.ValidateDistanceKm(distanceKm); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	maxMeters := distanceKm * 1000

	reports, err := s.store.FindNear(ctx, models.NewGeoPoint(lng, lat), maxMeters)
	if err != nil {
		return nil, err
	}

	return normalizeStatuses(reports), nil
}

// RegeocodeLegacy повторно геокодирует записи с геометрией-заглушкой.
// Сбои по отдельным записям логируются и пропускаются: обслуживание
// данных не должно падать из-за одного неразрешимого адреса.
func (s *ReportService) RegeocodeLegacy(ctx context.Context) (int, error) {
	reports, err := s.store.ListUnresolved(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range reports {
		report := &reports[i]

		point, err := s.geocoder.Resolve(ctx, report.LastSeenLocation)
		if err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"report_id": report.ID.Hex(),
					"error":     err.Error(),
				}).Warn("report service: не удалось повторно геокодировать заявку")
			}
			continue
		}

		if _, err := s.store.Update(ctx, report.ID, bson.M{
			"location": models.NewGeoPoint(point.Lng, point.Lat),
		}); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

// resolveLocation вызывает геокодер и переводит его ошибки в таксономию приложения.
func (s *ReportService) resolveLocation(ctx context.Context, freeText string) (geocode.Point, error) {
	point, err := s.geocoder.Resolve(ctx, freeText)
	if err != nil {
		switch {
		case errors.Is(err, geocode.ErrNotFound):
			return geocode.Point{}, apperror.ErrLocationNotResolvable
		case errors.Is(err, geocode.ErrUnavailable):
			return geocode.Point{}, apperror.ErrGeocodingUnavailable.WithCause(err)
		default:
			return geocode.Point{}, fmt.Errorf("report service: геокодирование не удалось: %w", err)
		}
	}
	return point, nil
}

// validateCreateInput проверяет обязательные поля новой заявки.
func (s *ReportService) validateCreateInput(in CreateReportInput) error {
	if err := validation.ValidateLength("имя", in.Name, validation.MinNameLength, validation.MaxNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAge(in.Age); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("пол", in.Gender); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("пол", in.Gender, 0, validation.MaxGenderLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("место последней встречи", in.LastSeenLocation); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("место последней встречи", in.LastSeenLocation, 0, validation.MaxLocationLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("контактный телефон", in.ContactPhone, 0, validation.MaxPhoneLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// normalizeStatus приводит старые записи без статуса к явному Missing.
// Применяется один раз на выходе сервиса, а не в каждом обработчике.
func normalizeStatus(report *models.Report) *models.Report {
	report.Status = report.EffectiveStatus()
	return report
}

func normalizeStatuses(reports []models.Report) []models.Report {
	for i := range reports {
		reports[i].Status = reports[i].EffectiveStatus()
	}
	return reports
}

// storeErr переводит сентинелы хранилища в ошибки уровня приложения.
func storeErr(err error) error {
	if errors.Is(err, repository.ErrReportNotFound) {
		return apperror.ErrReportNotFound
	}
	return err
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
