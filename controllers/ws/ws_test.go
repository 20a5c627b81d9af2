package ws

import (
	"net/http/httptest"
	"testing"
	"time"

	"agrirent-booking/database"
	bookingModel "agrirent-booking/models/booking"
	machineModel "agrirent-booking/models/machine"
	userModel "agrirent-booking/models/user"
	"agrirent-booking/realtime"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&machineModel.Machine{},
		&bookingModel.Booking{},
	))

	// utils.CurrentUser resolves accounts through the package-level handle
	database.DB = db
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *userModel.User {
	t.Helper()

	u := userModel.User{
		Uuid:        uuid.NewString(),
		Name:        name,
		Phone:       "+9198765" + uuid.NewString()[:5],
		Role:        role,
		Permissions: userModel.StringSlice{"agrirent." + role + ".full-permit"},
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func seedBooking(t *testing.T, db *gorm.DB, farmer, owner *userModel.User) *bookingModel.Booking {
	t.Helper()

	m := machineModel.Machine{
		Uuid:          uuid.NewString(),
		OwnerID:       owner.ID,
		Name:          "Tractor",
		Category:      "tractor",
		BillingScheme: "time",
		Rate:          decimal.NewFromInt(500),
		Unit:          "hour",
		IsActive:      true,
	}
	require.NoError(t, db.Create(&m).Error)

	b := bookingModel.Booking{
		Uuid:             uuid.NewString(),
		MachineID:        m.ID,
		FarmerID:         farmer.ID,
		OwnerID:          owner.ID,
		Status:           bookingModel.BookingStatusOwnerConfirmed,
		RequestedStartAt: time.Now(),
		BillingScheme:    bookingModel.BillingSchemeTime,
		Rate:             m.Rate,
		Unit:             m.Unit,
		CreatedBy:        farmer.Uuid,
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func signToken(t *testing.T, u *userModel.User) string {
	t.Helper()

	claims := jwt.MapClaims{
		"uuid":        u.Uuid,
		"role":        u.Role,
		"permissions": []string(u.Permissions),
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	wc := NewWSController(db, realtime.NewHub())
	app.Get("/ws/bookings/:uuid", wc.Upgrade, wc.Serve())
	app.Get("/ws/owner", wc.Upgrade, wc.Serve())
	return app
}

func TestUpgradeRejectsNonParty(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	farmer := seedUser(t, db, "Farmer", "farmer")
	owner := seedUser(t, db, "Owner", "owner")
	outsider := seedUser(t, db, "Outsider", "farmer")
	b := seedBooking(t, db, farmer, owner)

	app := newTestApp(db)

	req := httptest.NewRequest("GET", "/ws/bookings/"+b.Uuid+"?token="+signToken(t, outsider), nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	resp, err := app.Test(req)
	require.NoError(t, err)

	// The rejection must reach the client as-is; the handshake must not run.
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpgradeAdmitsBookingParties(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	farmer := seedUser(t, db, "Farmer", "farmer")
	owner := seedUser(t, db, "Owner", "owner")
	b := seedBooking(t, db, farmer, owner)

	app := newTestApp(db)

	for _, party := range []*userModel.User{farmer, owner} {
		req := httptest.NewRequest("GET", "/ws/bookings/"+b.Uuid+"?token="+signToken(t, party), nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")

		resp, err := app.Test(req)
		require.NoError(t, err)

		// A party passes the auth gate; anything but a rejection status means
		// the request reached the upgrader.
		require.NotEqual(t, fiber.StatusForbidden, resp.StatusCode)
		require.NotEqual(t, fiber.StatusNotFound, resp.StatusCode)
		require.NotEqual(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestUpgradeUnknownBookingIsNotFound(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	farmer := seedUser(t, db, "Farmer", "farmer")

	app := newTestApp(db)

	req := httptest.NewRequest("GET", "/ws/bookings/"+uuid.NewString()+"?token="+signToken(t, farmer), nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpgradeRequiresToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	farmer := seedUser(t, db, "Farmer", "farmer")
	owner := seedUser(t, db, "Owner", "owner")
	b := seedBooking(t, db, farmer, owner)

	app := newTestApp(db)

	req := httptest.NewRequest("GET", "/ws/bookings/"+b.Uuid, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpgradeRequiresWebSocketHeaders(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	farmer := seedUser(t, db, "Farmer", "farmer")

	app := newTestApp(db)

	req := httptest.NewRequest("GET", "/ws/owner?token="+signToken(t, farmer), nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
