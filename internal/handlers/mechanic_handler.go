package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/otoservice/workshop-scheduler/internal/infra/repository"
	"github.com/otoservice/workshop-scheduler/internal/middleware"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

type MechanicHandler struct {
	db   *gorm.DB
	repo *repository.WorkshopGormRepository
}

func NewMechanicHandler(db *gorm.DB, repo *repository.WorkshopGormRepository) *MechanicHandler {
	return &MechanicHandler{db: db, repo: repo}
}

type UpdateSkillsRequest struct {
	Categories []string `json:"categories" binding:"required"`
}

// List returns all mechanic accounts with their skill tags. Admin only.
func (h *MechanicHandler) List(c *gin.Context) {
	var mechanics []models.User
	if err := h.db.
		Where("role = ?", models.RoleMechanic).
		Order("id ASC").
		Find(&mechanics).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_list_mechanics"})
		return
	}

	ids := make([]uint, 0, len(mechanics))
	for _, m := range mechanics {
		ids = append(ids, m.ID)
	}

	var skills []models.MechanicSkill
	if len(ids) > 0 {
		h.db.Where("mechanic_id IN ?", ids).Find(&skills)
	}

	byMechanic := make(map[uint][]string)
	for _, s := range skills {
		byMechanic[s.MechanicID] = append(byMechanic[s.MechanicID], s.Category)
	}

	out := make([]gin.H, 0, len(mechanics))
	for _, m := range mechanics {
		out = append(out, gin.H{
			"id":       m.ID,
			"name":     m.Name,
			"email":    m.Email,
			"approved": m.Approved,
			"skills":   byMechanic[m.ID],
		})
	}

	c.JSON(http.StatusOK, out)
}

// Approve marks a mechanic account as schedulable. Admin only.
func (h *MechanicHandler) Approve(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.
		Where("id = ? AND role = ?", id, models.RoleMechanic).
		First(&user).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "mechanic_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_mechanic"})
		return
	}

	user.Approved = true
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_approve_mechanic"})
		return
	}

	h.repo.InvalidateMechanic(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, user)
}

// UpdateSkills replaces the calling mechanic's skill tags.
func (h *MechanicHandler) UpdateSkills(c *gin.Context) {
	mechanicID := c.MustGet(middleware.ContextUserID).(uint)

	var req UpdateSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mechanic_id = ?", mechanicID).
			Delete(&models.MechanicSkill{}).Error; err != nil {
			return err
		}

		for _, cat := range req.Categories {
			skill := models.MechanicSkill{
				MechanicID: mechanicID,
				Category:   strings.ToLower(strings.TrimSpace(cat)),
			}
			if err := tx.Create(&skill).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_update_skills"})
		return
	}

	h.repo.InvalidateMechanic(c.Request.Context(), mechanicID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
