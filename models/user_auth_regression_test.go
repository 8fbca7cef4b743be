package models_test

import (
	"testing"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
)

func TestUserLifecycleAndLogin(t *testing.T) {
	ctx := setupInventoryEnv(t)

	manager, err := models.CreateUser(ctx, &models.NewUser{
		Username: "warehouse_manager",
		Password: "manager123",
		Role:     models.UserRoleWarehouseManager,
		FullName: "Warehouse Manager",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if manager.Password != "" {
		t.Fatalf("CreateUser leaked the password hash")
	}

	// usernames are unique
	if _, err := models.CreateUser(ctx, &models.NewUser{
		Username: "warehouse_manager",
		Password: "other",
		Role:     models.UserRoleViewer,
	}); err == nil {
		t.Fatalf("duplicate username was accepted")
	}

	// password is mandatory on create
	if _, err := models.CreateUser(ctx, &models.NewUser{
		Username: "no_password",
		Role:     models.UserRoleViewer,
	}); err == nil {
		t.Fatalf("user without password was accepted")
	}

	if _, err := models.Login(ctx, "warehouse_manager", "wrong"); err == nil {
		t.Fatalf("login with wrong password succeeded")
	}
	info, err := models.Login(ctx, "warehouse_manager", "manager123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if info.Token == "" {
		t.Fatalf("login returned empty token")
	}
	if info.Role != models.UserRoleWarehouseManager {
		t.Fatalf("login role = %s", info.Role)
	}

	loggedIn, err := models.GetUser(ctx, manager.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatalf("LastLoginAt not stamped by login")
	}

	// acting as the manager now
	ctx = utils.SetUserIdInContext(ctx, manager.ID)

	// nobody may change their own role or delete their own account
	if _, err := models.UpdateUser(ctx, manager.ID, &models.NewUser{
		Username: "warehouse_manager",
		Role:     models.UserRoleViewer,
	}); err == nil {
		t.Fatalf("self role change was accepted")
	}
	if _, err := models.DeleteUser(ctx, manager.ID); err == nil {
		t.Fatalf("self delete was accepted")
	}

	if _, err := models.ChangePassword(ctx, "wrong", "newpass456"); err == nil {
		t.Fatalf("ChangePassword with wrong old password succeeded")
	}
	if _, err := models.ChangePassword(ctx, "manager123", "newpass456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := models.Login(ctx, "warehouse_manager", "newpass456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// A stored hash that bcrypt cannot parse must refuse the login, not
	// fall through to success.
	if err := config.GetDB().WithContext(ctx).Model(&models.User{}).
		Where("id = ?", manager.ID).
		UpdateColumn("password", "not-a-bcrypt-hash").Error; err != nil {
		t.Fatalf("corrupt stored hash: %v", err)
	}
	if _, err := models.Login(ctx, "warehouse_manager", "newpass456"); err == nil {
		t.Fatalf("login succeeded against a malformed stored hash")
	}
	rehashed, err := utils.HashPassword("newpass456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := config.GetDB().WithContext(ctx).Model(&models.User{}).
		Where("id = ?", manager.ID).
		UpdateColumn("password", string(rehashed)).Error; err != nil {
		t.Fatalf("restore hash: %v", err)
	}

	// disabled accounts cannot log in
	disabled, err := models.CreateUser(ctx, &models.NewUser{
		Username: "leaver",
		Password: "leaver123",
		Role:     models.UserRoleViewer,
		IsActive: utils.NewFalse(),
	})
	if err != nil {
		t.Fatalf("CreateUser leaver: %v", err)
	}
	if _, err := models.Login(ctx, "leaver", "leaver123"); err == nil {
		t.Fatalf("disabled user logged in")
	}

	users, err := models.GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Password != "" {
			t.Fatalf("GetAllUsers leaked a password hash for %s", u.Username)
		}
	}

	if _, err := models.DeleteUser(ctx, disabled.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := models.GetUser(ctx, disabled.ID); err == nil {
		t.Fatalf("deleted user still retrievable")
	}
}
