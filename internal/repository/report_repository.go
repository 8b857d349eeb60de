package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ignatzorin/findperson-backend/internal/models"
)

// ErrReportNotFound возвращается, когда заявка не найдена.
var ErrReportNotFound = errors.New("report not found")

// missingFilter выбирает активные заявки. Старые записи без поля status
// считаются Missing — поэтому фильтр через $or с $exists.
func missingFilter() bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"status": models.StatusMissing},
			bson.M{"status": bson.M{"$exists": false}},
		},
	}
}

// ReportRepository отвечает за коллекцию reports в MongoDB.
type ReportRepository struct {
	col *mongo.Collection
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{col: db.Collection("reports")}
}

// EnsureIndexes объявляет индексы коллекции. 2dsphere индекс на поле
// геометрии обязателен: без него $near запросы не работают. Вызывается
// при старте приложения, до приёма трафика.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("report repository: ensure indexes %w", err)
	}

	return nil
}

// Insert сохраняет новую заявку и проставляет её идентификатор.
func (r *ReportRepository) Insert(ctx context.Context, report *models.Report) error {
	result, err := r.col.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("report repository: insert %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		report.ID = id
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var report models.Report
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// Update применяет частичное обновление полей и возвращает новую версию записи.
func (r *ReportRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.Report
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: update %w", err)
	}

	return &report, nil
}

// SetStatus атомарно меняет только статус заявки.
func (r *ReportRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Report, error) {
	return r.Update(ctx, id, bson.M{"status": status})
}

// Delete удаляет заявку.
func (r *ReportRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("report repository: delete %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrReportNotFound
	}

	return nil
}

// ListMissing возвращает активные заявки, новые первыми.
func (r *ReportRepository) ListMissing(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, missingFilter())
}

// ListFound возвращает заявки со статусом Found, новые первыми.
func (r *ReportRepository) ListFound(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, bson.M{"status": models.StatusFound})
}

// ListByOwner возвращает все заявки пользователя независимо от статуса.
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Report, error) {
	return r.list(ctx, bson.M{"user_id": ownerID})
}

func (r *ReportRepository) list(ctx context.Context, filter bson.M) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("report repository: list %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("report repository: decode list %w", err)
	}

	return reports, nil
}

// FindNear возвращает активные заявки в радиусе maxMeters от точки,
// ближайшие первыми. $near опирается на 2dsphere индекс и сам сортирует
// результат по расстоянию, поэтому дополнительный sort не нужен.
func (r *ReportRepository) FindNear(ctx context.Context, center models.GeoPoint, maxMeters float64) ([]models.Report, error) {
	filter := missingFilter()
	filter["location"] = bson.M{
		"$near": bson.M{
			"$geometry": bson.M{
				"type":        "Point",
				"coordinates": center.Coordinates,
			},
			"$maxDistance": maxMeters,
		},
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("report repository: find near %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("report repository: decode near %w", err)
	}

	return reports, nil
}

// ListUnresolved возвращает заявки с геометрией-заглушкой [0, 0] —
// кандидаты на повторное геокодирование.
func (r *ReportRepository) ListUnresolved(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, bson.M{"location.coordinates": bson.A{0, 0}})
}
