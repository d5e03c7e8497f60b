package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"firecert/internal/database"
	"firecert/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A second pool connection would see its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func pendingApplication(est, owner uuid.UUID) *model.Application {
	return &model.Application{
		EstablishmentID: est,
		OwnerID:         owner,
		Category:        model.CategoryBusiness,
		SubStatus:       model.SubStatusNew,
		Status:          model.StatusPending,
		ContactPerson:   "Maria Santos",
		ContactNumber:   "09171234567",
		ContactEmail:    "maria@example.com",
	}
}

func TestApplicationRepositoryFindPending(t *testing.T) {
	db := testDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	est := uuid.New()
	owner := uuid.New()
	app := pendingApplication(est, owner)
	require.NoError(t, repo.Create(ctx, app))

	t.Run("finds the pending record", func(t *testing.T) {
		id, err := repo.FindPending(ctx, est, model.CategoryBusiness, owner, nil)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, app.ID, *id)
	})

	t.Run("excluded record does not count", func(t *testing.T) {
		id, err := repo.FindPending(ctx, est, model.CategoryBusiness, owner, &app.ID)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("different category does not count", func(t *testing.T) {
		id, err := repo.FindPending(ctx, est, model.CategoryOccupancy, owner, nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("non-pending status does not count", func(t *testing.T) {
		require.NoError(t, db.Model(app).Update("status", model.StatusApproved).Error)
		id, err := repo.FindPending(ctx, est, model.CategoryBusiness, owner, nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})
}

func TestApplicationPendingUniqueIndex(t *testing.T) {
	db := testDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	est := uuid.New()
	owner := uuid.New()
	require.NoError(t, repo.Create(ctx, pendingApplication(est, owner)))

	// Same triple, still pending: the partial unique index rejects it.
	err := repo.Create(ctx, pendingApplication(est, owner))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Same establishment and owner but the other category passes.
	other := pendingApplication(est, owner)
	other.Category = model.CategoryOccupancy
	assert.NoError(t, repo.Create(ctx, other))

	// Once the first is no longer pending, a new pending one is allowed.
	require.NoError(t, db.Model(&model.Application{}).
		Where("establishment_id = ? AND category = ?", est, model.CategoryBusiness).
		Update("status", model.StatusRejected).Error)
	assert.NoError(t, repo.Create(ctx, pendingApplication(est, owner)))
}

func TestApplicationRepositoryReplaceDocuments(t *testing.T) {
	db := testDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	app := pendingApplication(uuid.New(), uuid.New())
	app.Documents = []model.ApplicationDocument{
		{Slug: "occupancy_permit_photocopy", URL: "ref://old-permit"},
		{Slug: "fire_insurance_policy", URL: "ref://insurance"},
	}
	require.NoError(t, repo.Create(ctx, app))

	require.NoError(t, repo.ReplaceDocuments(ctx, app.ID, []model.ApplicationDocument{
		{Slug: "occupancy_permit_photocopy", URL: "ref://new-permit"},
	}))

	got, err := repo.FindByID(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "ref://new-permit", got.Documents[0].URL)

	t.Run("empty set clears all rows", func(t *testing.T) {
		require.NoError(t, repo.ReplaceDocuments(ctx, app.ID, nil))
		got, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Documents)
	})
}

func TestApplicationRepositoryList(t *testing.T) {
	db := testDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	otherOwner := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, pendingApplication(uuid.New(), owner)))
	}
	require.NoError(t, repo.Create(ctx, pendingApplication(uuid.New(), otherOwner)))

	apps, total, err := repo.List(ctx, ApplicationFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, apps, 3)

	apps, total, err = repo.List(ctx, ApplicationFilter{OwnerID: &owner, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, apps, 1)

	apps, total, err = repo.List(ctx, ApplicationFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, apps)
}

func TestCertificateRepositoryNextNumber(t *testing.T) {
	db := testDB(t)
	repo := NewCertificateRepository(db)
	ctx := context.Background()
	prefix := "FSC-20260830-"

	no, err := repo.NextNumber(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, "FSC-20260830-00001", no)

	require.NoError(t, repo.Create(ctx, testCertificate(no)))

	no, err = repo.NextNumber(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, "FSC-20260830-00002", no)

	// Another day's prefix starts its own sequence.
	no, err = repo.NextNumber(ctx, "FSC-20260831-")
	require.NoError(t, err)
	assert.Equal(t, "FSC-20260831-00001", no)
}

func testCertificate(no string) *model.Certificate {
	return &model.Certificate{
		ApplicationID:   uuid.New(),
		EstablishmentID: uuid.New(),
		CertificateNo:   no,
		Category:        model.CategoryBusiness,
		IssuedAt:        time.Now(),
		ValidUntil:      time.Now().AddDate(1, 0, 0),
	}
}

func TestTransactionManagerRollback(t *testing.T) {
	db := testDB(t)
	txm := NewTransactionManager(db)
	apps := NewApplicationRepository(db)
	audits := NewAuditRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := apps.Create(txCtx, pendingApplication(uuid.New(), uuid.New())); err != nil {
			return err
		}
		if err := audits.Log(txCtx, &model.AuditLog{Action: model.ActionSubmitApplication, EntityID: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := apps.List(ctx, ApplicationFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = audits.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAuditRepositoryListActionFilter(t *testing.T) {
	db := testDB(t)
	audits := NewAuditRepository(db)
	ctx := context.Background()

	for _, action := range []string{
		model.ActionSubmitApplication,
		model.ActionApproveApplication,
		model.ActionSubmitApplication,
	} {
		require.NoError(t, audits.Log(ctx, &model.AuditLog{Action: action, EntityID: uuid.NewString()}))
	}

	logs, total, err := audits.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, logs, 3)

	logs, total, err = audits.List(ctx, model.ActionSubmitApplication, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, l := range logs {
		assert.Equal(t, model.ActionSubmitApplication, l.Action)
	}

	_, total, err = audits.List(ctx, model.ActionFileInspection, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUserRepositoryRefreshTokens(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "hashed",
		Role:     model.RoleOwner,
	}
	require.NoError(t, repo.Create(ctx, user))

	token := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, token))

	got, err := repo.GetRefreshToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, repo.DeleteRefreshToken(ctx, token.Token))
	_, err = repo.GetRefreshToken(ctx, token.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
