package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/utils"
)

// UserHandler handles account provisioning (admin operations).
type UserHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, log zerolog.Logger) *UserHandler {
	return &UserHandler{DB: db, Log: log}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role" binding:"required,oneof=PATIENT DOCTOR LAB_ATTENDANT ADMIN"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		utils.RespondError(c, h.Log, apperr.InvalidField("role", "invalid_role", err.Error()))
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, h.Log, apperr.InvalidField("email", "duplicate_email", "User with this email already exists"))
			return
		}
		utils.RespondError(c, h.Log, err)
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching users (admin), optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Order("id")
	if raw := c.Query("role"); raw != "" {
		role, err := models.ParseRole(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid role filter")
			return
		}
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i := range users {
		sanitizedUsers[i] = users[i].Sanitize()
	}

	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

func (h *UserHandler) findUser(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, h.Log, apperr.NotFound("user"))
		return nil, false
	}
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return nil, false
	}
	return &user, true
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// CreateDoctorProfileRequest carries the professional details that make a
// DOCTOR-role user bookable.
type CreateDoctorProfileRequest struct {
	Specialization    string `json:"specialization" binding:"required,max=100"`
	LicenseNumber     string `json:"licenseNumber" binding:"required,max=50"`
	YearsOfExperience int    `json:"yearsOfExperience" binding:"min=0,max=80"`
}

// CreateDoctorProfile attaches a doctor profile to a DOCTOR-role user (admin).
func (h *UserHandler) CreateDoctorProfile(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	var req CreateDoctorProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if user.Role != models.RoleDoctor {
		utils.RespondError(c, h.Log, apperr.Validation("not_a_doctor", "Only users with the DOCTOR role can have a doctor profile."))
		return
	}

	profile := models.DoctorProfile{
		UserID:            user.ID,
		Specialization:    req.Specialization,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, h.Log, apperr.Validation("duplicate_profile", "The user already has a doctor profile or the license number is taken."))
			return
		}
		utils.RespondError(c, h.Log, err)
		return
	}

	utils.Created(c, "Doctor profile created successfully", profile)
}
