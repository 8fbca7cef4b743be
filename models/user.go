package models

import (
	"context"
	"errors"
	"html"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/utils"
)

type User struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Username    string     `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Password    string     `gorm:"size:255;not null" json:"password"`
	Role        UserRole   `gorm:"size:30;not null" json:"role"`
	FullName    string     `gorm:"size:100" json:"full_name"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password"`
	Role     UserRole `json:"role" binding:"required"`
	FullName string   `json:"full_name"`
	IsActive *bool    `json:"is_active"`
}

type LoginInfo struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	// check login credentials; any comparison failure (mismatch or a
	// malformed stored hash) refuses the login
	err = utils.ComparePassword(user.Password, password)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	if !utils.DereferencePtr(user.IsActive) {
		return nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&user).UpdateColumn("LastLoginAt", &now).Error; err != nil {
		return nil, err
	}

	// token in redis lets Logout revoke before expiry; login still works
	// when redis is down (helpers are nil-safe no-ops).
	token_lifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		token_lifespan = 24
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, time.Duration(token_lifespan)*time.Hour); err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:    token,
		Username: user.Username,
		FullName: user.FullName,
		Role:     user.Role,
	}, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	return true, nil
}

func GetAllUsers(ctx context.Context) ([]*User, error) {

	db := config.GetDB()
	var results []*User

	if err := db.WithContext(ctx).Order("username").Find(&results).Error; err != nil {
		return nil, err
	}

	for i, u := range results {
		u.Password = ""
		results[i] = u
	}

	return results, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {

	db := config.GetDB()
	var result User

	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	result.PrepareGive()
	return &result, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	db := config.GetDB()
	var count int64

	if !input.Role.IsValid() {
		return nil, errors.New("invalid role")
	}
	if input.Password == "" {
		return nil, errors.New("password is required")
	}

	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", input.Username).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate username")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	user := User{
		Username: html.EscapeString(strings.TrimSpace(input.Username)),
		Password: string(hashedPassword),
		Role:     input.Role,
		FullName: input.FullName,
		IsActive: isActive,
	}

	err = db.WithContext(ctx).Create(&user).Error
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {

	if !input.Role.IsValid() {
		return nil, errors.New("invalid role")
	}

	actingId, _ := utils.GetUserIdFromContext(ctx)
	user, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	// role changes on your own account are forbidden
	if actingId == id && user.Role != input.Role {
		return nil, errors.New("cannot change your own role")
	}

	if err := utils.ValidateUnique[User](ctx, "username", input.Username, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Username": html.EscapeString(strings.TrimSpace(input.Username)),
		"Role":     input.Role,
		"FullName": input.FullName,
	}
	if input.IsActive != nil {
		updates["IsActive"] = *input.IsActive
	}
	if input.Password != "" {
		hashedPassword, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["Password"] = string(hashedPassword)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&user).Updates(updates).Error
	if err != nil {
		return nil, err
	}

	user.PrepareGive()
	return user, nil
}

func DeleteUser(ctx context.Context, id int) (*User, error) {

	actingId, _ := utils.GetUserIdFromContext(ctx)
	if actingId == id {
		return nil, errors.New("cannot delete your own account")
	}

	user, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&user).Error
	if err != nil {
		return nil, err
	}

	user.PrepareGive()
	return user, nil
}

func ChangePassword(ctx context.Context, oldPassword string, newPassword string) (*User, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&user, userId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	// check oldPassword
	if err := utils.ComparePassword(user.Password, oldPassword); err != nil {
		return nil, errors.New("old password is wrong")
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&user).UpdateColumn("Password", string(hashedPassword)).Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}
