package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Статусы заявки о пропавшем человеке.
const (
	StatusMissing = "Missing"
	StatusFound   = "Found"
)

// IsValidStatus проверяет, что статус входит в допустимый набор.
func IsValidStatus(status string) bool {
	return status == StatusMissing || status == StatusFound
}

// GeoPoint описывает точку в формате GeoJSON.
// Инвариант: порядок координат всегда [долгота, широта] — так требует
// 2dsphere индекс MongoDB. Координаты [0, 0] означают, что геокодирование
// не выполнено.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint собирает GeoJSON точку из долготы и широты.
// Единственное место в коде, где lng/lat превращаются в массив координат.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

// UnresolvedGeoPoint возвращает точку-заглушку для негеокодированных записей.
func UnresolvedGeoPoint() GeoPoint {
	return NewGeoPoint(0, 0)
}

// IsUnresolved сообщает, что геометрия ещё не разрешена.
func (p GeoPoint) IsUnresolved() bool {
	return len(p.Coordinates) != 2 || (p.Coordinates[0] == 0 && p.Coordinates[1] == 0)
}

// Lng возвращает долготу точки.
func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat возвращает широту точки.
func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) != 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Report описывает заявку о пропавшем человеке.
// Записи без поля status считаются активными (Missing) — старый формат данных.
type Report struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	Name             string             `bson:"name" json:"name"`
	Age              int                `bson:"age" json:"age"`
	Gender           string             `bson:"gender" json:"gender"`
	PhotoURL         string             `bson:"photo_url" json:"photo_url"`
	LastSeenLocation string             `bson:"last_seen_location" json:"last_seen_location"`
	Location         GeoPoint           `bson:"location" json:"location"`
	Description      string             `bson:"description" json:"description"`
	ContactPhone     string             `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Status           string             `bson:"status,omitempty" json:"status"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// EffectiveStatus возвращает статус с учётом старых записей без поля status.
func (r *Report) EffectiveStatus() string {
	if r.Status == "" {
		return StatusMissing
	}
	return r.Status
}
