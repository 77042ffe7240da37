package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/otoservice/workshop-scheduler/internal/cache"
	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

type WorkshopGormRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewWorkshopGormRepository(db *gorm.DB, c *cache.Cache) *WorkshopGormRepository {
	return &WorkshopGormRepository{db: db, cache: c}
}

// --------------------------------------------------
// Work orders
// --------------------------------------------------

func (r *WorkshopGormRepository) CreateWorkOrder(
	ctx context.Context,
	wo *models.WorkOrder,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(wo).Error; err != nil {
			return err
		}

		if wo.MechanicID == nil {
			return nil
		}
		entry := models.CalendarEntry{
			MechanicID:  *wo.MechanicID,
			WorkOrderID: wo.ID,
			StartTime:   wo.StartTime,
			EndTime:     wo.EndTime,
		}
		return tx.Create(&entry).Error
	})
}

func (r *WorkshopGormRepository) GetWorkOrder(
	ctx context.Context,
	id uint,
) (*models.WorkOrder, error) {

	var wo models.WorkOrder
	if err := r.db.WithContext(ctx).First(&wo, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "work order %d not found", id)
		}
		return nil, err
	}
	return &wo, nil
}

func (r *WorkshopGormRepository) UpdateWorkOrder(
	ctx context.Context,
	wo *models.WorkOrder,
) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

func (r *WorkshopGormRepository) ListWorkOrdersForMechanic(
	ctx context.Context,
	mechanicID uint,
	start time.Time,
	end time.Time,
) ([]models.WorkOrder, error) {

	var orders []models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Vehicle").
		Preload("Service").
		Where(
			"mechanic_id = ? AND start_time >= ? AND start_time < ?",
			mechanicID, start, end,
		).
		Order("start_time ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *WorkshopGormRepository) ListWorkOrdersForCustomer(
	ctx context.Context,
	customerID uint,
) ([]models.WorkOrder, error) {

	var orders []models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Vehicle").
		Preload("Service").
		Where("customer_id = ?", customerID).
		Order("start_time DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// --------------------------------------------------
// Calendar mirror
// --------------------------------------------------

func (r *WorkshopGormRepository) SaveCalendarEntry(
	ctx context.Context,
	entry *models.CalendarEntry,
) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *WorkshopGormRepository) RemoveCalendarEntry(
	ctx context.Context,
	mechanicID uint,
	start time.Time,
	end time.Time,
) error {

	res := r.db.WithContext(ctx).
		Where(
			"mechanic_id = ? AND start_time = ? AND end_time = ?",
			mechanicID, start, end,
		).
		Delete(&models.CalendarEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrBusinessf(
			httperr.CodeNotFound,
			"no calendar entry for mechanic %d at %s",
			mechanicID, start.Format(time.RFC3339),
		)
	}
	return nil
}

func (r *WorkshopGormRepository) ListCalendarEntries(
	ctx context.Context,
) ([]models.CalendarEntry, error) {

	var entries []models.CalendarEntry
	err := r.db.WithContext(ctx).
		Order("mechanic_id ASC, start_time ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// --------------------------------------------------
// Directory
// --------------------------------------------------

func (r *WorkshopGormRepository) MechanicsBySkill(
	ctx context.Context,
	category string,
) ([]schedule.Mechanic, error) {

	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN mechanic_skills ON mechanic_skills.mechanic_id = users.id").
		Where(
			"users.role = ? AND users.approved = ? AND mechanic_skills.category = ?",
			models.RoleMechanic, true, category,
		).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]schedule.Mechanic, 0, len(users))
	for _, u := range users {
		m, err := r.buildMechanic(ctx, &u)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *WorkshopGormRepository) Mechanic(
	ctx context.Context,
	id uint,
) (*schedule.Mechanic, error) {

	key := fmt.Sprintf("mechanic:%d", id)
	var cached schedule.Mechanic
	if r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ? AND approved = ?", id, models.RoleMechanic, true).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "mechanic %d not found", id)
		}
		return nil, err
	}

	m, err := r.buildMechanic(ctx, &user)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, m)
	return m, nil
}

func (r *WorkshopGormRepository) ServiceEntry(
	ctx context.Context,
	id uint,
) (*schedule.ServiceEntry, error) {

	key := fmt.Sprintf("service:%d", id)
	var cached schedule.ServiceEntry
	if r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	var svc models.Service
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&svc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service %d not in catalog", id)
		}
		return nil, err
	}

	entry := schedule.ServiceEntry{
		ID:       svc.ID,
		Name:     svc.Name,
		Category: svc.Category,
		Duration: time.Duration(svc.DurationMin) * time.Minute,
		Price:    svc.BasePrice,
	}

	r.cache.Set(ctx, key, &entry)
	return &entry, nil
}

// InvalidateMechanic drops the cached profile after a skills or
// working-hours change.
func (r *WorkshopGormRepository) InvalidateMechanic(ctx context.Context, id uint) {
	r.cache.Delete(ctx, fmt.Sprintf("mechanic:%d", id))
}

// InvalidateService drops the cached catalog entry after an update.
func (r *WorkshopGormRepository) InvalidateService(ctx context.Context, id uint) {
	r.cache.Delete(ctx, fmt.Sprintf("service:%d", id))
}

func (r *WorkshopGormRepository) buildMechanic(
	ctx context.Context,
	user *models.User,
) (*schedule.Mechanic, error) {

	var skills []models.MechanicSkill
	if err := r.db.WithContext(ctx).
		Where("mechanic_id = ?", user.ID).
		Find(&skills).Error; err != nil {
		return nil, err
	}

	var hours []models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("mechanic_id = ?", user.ID).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {
		return nil, err
	}

	m := schedule.Mechanic{
		ID:     user.ID,
		Name:   user.Name,
		Skills: make([]string, 0, len(skills)),
		Hours:  make(schedule.WorkingHours, len(hours)),
	}
	for _, s := range skills {
		m.Skills = append(m.Skills, s.Category)
	}
	for _, h := range hours {
		m.Hours[time.Weekday(h.Weekday)] = schedule.DayHours{
			Start:      h.StartTime,
			End:        h.EndTime,
			LunchStart: h.LunchStart,
			LunchEnd:   h.LunchEnd,
			Active:     h.Active,
		}
	}
	return &m, nil
}

// Compile-time checks
var _ workorder.Repository = (*WorkshopGormRepository)(nil)
var _ schedule.Directory = (*WorkshopGormRepository)(nil)
