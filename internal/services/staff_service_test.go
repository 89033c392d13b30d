package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/testutil"
	"github.com/example/ariss/internal/utils"
)

func TestAdminLogin(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStaffService(db, nil, testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "Root", "root@ariss.in", "short")
	assert.True(t, IsKind(err, KindValidation))

	admin, err := svc.CreateAdmin(ctx, "Root", "Root@ariss.in", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "root@ariss.in", admin.Email)

	_, err = svc.CreateAdmin(ctx, "Root", "root@ariss.in", "correct-horse")
	assert.True(t, IsKind(err, KindConflict))

	_, err = svc.AdminLogin(ctx, "root@ariss.in", "wrong-password")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.AdminLogin(ctx, "ghost@ariss.in", "correct-horse")
	assert.ErrorIs(t, err, ErrBadCredentials)

	result, err := svc.AdminLogin(ctx, " ROOT@ariss.in ", "correct-horse")
	require.NoError(t, err)
	session, err := utils.ParseToken(testSecret, result.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.UserID)
	assert.Equal(t, models.RoleAdmin, session.Role)
}

func TestEmployeeApprovalGate(t *testing.T) {
	db := testutil.NewDB(t)
	ch := &recordingChannel{}
	notifier := NewNotifier(time.Second, ch)
	staff := NewStaffService(db, notifier, testSecret, time.Hour)
	accounts := NewAccountService(db, nil, nil, notifier, testSecret, time.Hour)
	ctx := context.Background()

	employee, err := staff.RegisterEmployee(ctx, EmployeeRegistration{
		Name: "Priya", Email: "priya@ariss.in", Phone: "+919844444444", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.False(t, employee.IsApproved)
	require.Len(t, ch.messages(), 1)

	_, err = staff.RegisterEmployee(ctx, EmployeeRegistration{Name: "Priya", Email: "priya@ariss.in", Password: "s3cret-pass"})
	assert.True(t, IsKind(err, KindConflict))

	_, err = staff.EmployeeLogin(ctx, "priya@ariss.in", "s3cret-pass")
	assert.ErrorIs(t, err, ErrNotApproved)

	require.NoError(t, accounts.SetApproval(ctx, models.RoleEmployee, employee.ID, true))

	result, err := staff.EmployeeLogin(ctx, "priya@ariss.in", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, result.Role)

	_, err = staff.EmployeeLogin(ctx, "priya@ariss.in", "wrong-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)

	got, err := staff.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
}
