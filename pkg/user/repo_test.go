package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	. "forum/pkg/common"
)

var (
	userID     = "1"
	username   = "pike"
	password   = "sdfsdfsdf"
	salt       = "12345678"
	hashedPass = HashPass(password, salt)
)

func TestGetById(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()

	r := NewUserRepo(db)

	t.Run("should return user", func(t *testing.T) {
		expect := &User{Id: userID, Username: username, Role: RoleUser, Activity: 42}

		rows := sqlmock.NewRows([]string{"id", "username", "role", "banned", "activity"})
		rows.AddRow(expect.Id, expect.Username, expect.Role, false, expect.Activity)

		mock.
			ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
			WithArgs(userID).
			WillReturnRows(rows)

		gotUser, err := r.GetById(context.TODO(), userID)
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, expect, gotUser)
		assert.Equal(t, 2, gotUser.Level())
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return not found", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
			WithArgs("404").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "banned", "activity"}))
		_, err = r.GetById(context.TODO(), "404")
		assert.True(t, errors.Is(err, ErrNotFound))
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return DB error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
			WithArgs(userID).
			WillReturnError(expectedErr)
		_, err = r.GetById(context.TODO(), userID)
		assert.ErrorIs(t, err, expectedErr)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})
}

func TestIsActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)
	cols := []string{"id", "username", "role", "banned", "activity"}

	mock.ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("1", "pike", RoleUser, false, 0))
	active, err := r.IsActive(context.TODO(), "1")
	assert.NoError(t, err)
	assert.True(t, active)

	mock.ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("2", "troll", RoleUser, true, 0))
	active, err = r.IsActive(context.TODO(), "2")
	assert.NoError(t, err)
	assert.False(t, active)

	mock.ExpectQuery("SELECT id, username, role, banned, activity FROM users where").
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows(cols))
	active, err = r.IsActive(context.TODO(), "3")
	assert.NoError(t, err)
	assert.False(t, active)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBanned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET banned").
		WithArgs(true, "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, r.SetBanned(context.TODO(), "7", true))

	mock.ExpectExec("UPDATE users SET banned").
		WithArgs(false, "8").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = r.SetBanned(context.TODO(), "8", false)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddActivityAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET activity").
		WithArgs(ActivityComment, "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, r.AddActivity(context.TODO(), "1", ActivityComment))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	n, err := r.Count(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoAdd(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)
	testUser := &User{Id: userID, Username: username, Password: hashedPass}

	t.Run("should add new user", func(t *testing.T) {
		mock.
			ExpectQuery("INSERT INTO users").
			WithArgs(username, hashedPass, RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))

		addedUserId, err := repo.Add(testUser)
		if err != nil {
			t.Errorf("unexpected error %s", err)
			return
		}
		assert.Equal(t, addedUserId, userID)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return query error", func(t *testing.T) {
		expectedErr := fmt.Errorf("bad query")
		mock.
			ExpectQuery("INSERT INTO users").
			WithArgs(username, hashedPass, RoleUser).
			WillReturnError(expectedErr)
		_, err = repo.Add(testUser)
		assert.ErrorIs(t, err, expectedErr)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return empty id error", func(t *testing.T) {
		mock.
			ExpectQuery("INSERT INTO users").
			WithArgs(username, hashedPass, RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(""))
		_, err = repo.Add(testUser)
		assert.ErrorContains(t, err, "user wasn't added")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})
}

func TestGetByUsernameAndPass(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)
	expect := &User{Id: userID, Username: username, Password: hashedPass, Role: RoleAdmin}
	cols := []string{"id", "username", "password", "role", "banned", "activity"}

	t.Run("should return user", func(t *testing.T) {
		row := sqlmock.NewRows(cols).
			AddRow(expect.Id, expect.Username, expect.Password, expect.Role, false, 0)
		mock.
			ExpectQuery("SELECT id, username, password, role, banned, activity FROM users where username").
			WithArgs(username).
			WillReturnRows(row)

		gotUser, err := r.GetByUsernameAndPass(username, password)
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, expect, gotUser)
		assert.True(t, gotUser.IsAdmin())
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return error: bad password", func(t *testing.T) {
		row := sqlmock.NewRows(cols).
			AddRow(expect.Id, expect.Username, expect.Password, expect.Role, false, 0)
		mock.
			ExpectQuery("SELECT id, username, password, role, banned, activity FROM users where username").
			WithArgs(username).
			WillReturnRows(row)
		_, err := r.GetByUsernameAndPass(username, "badpassword")
		assert.ErrorContains(t, err, "password is invalid")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return error: DB error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("SELECT id, username, password, role, banned, activity FROM users where username").
			WithArgs(username).
			WillReturnError(expectedErr)
		_, err = r.GetByUsernameAndPass(username, password)
		assert.ErrorIs(t, err, expectedErr)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})
}

func TestUserExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)

	t.Run("should return true", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id"})
		rows.AddRow(userID)
		mock.
			ExpectQuery("SELECT id FROM users where").
			WithArgs(username).
			WillReturnRows(rows)
		exists := r.UserExists(username)
		assert.Equal(t, exists, true)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return false", func(t *testing.T) {
		mock.
			ExpectQuery("SELECT id FROM users where").
			WithArgs(username).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		exists := r.UserExists(username)
		assert.Equal(t, exists, false)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})
}

func TestGetAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("cant create mock: %s", err)
	}
	defer db.Close()
	r := NewUserRepo(db)

	t.Run("should return users", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "password", "role"})
		expectedUsers := []*User{
			{Id: "1", Username: "user1", Password: hashedPass, Role: RoleUser},
			{Id: "2", Username: "user2", Password: hashedPass, Role: RoleUser},
			{Id: "3", Username: "user3", Password: hashedPass, Role: RoleAdmin},
		}
		for _, u := range expectedUsers {
			rows.AddRow(u.Id, u.Username, u.Password, u.Role)
		}
		mock.
			ExpectQuery("SELECT id, username, password, role FROM users").
			WillReturnRows(rows)
		gotUsers, err := r.GetAll()
		if err != nil {
			t.Errorf("unexpected err: %s", err)
			return
		}
		assert.Equal(t, expectedUsers, gotUsers)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return DB error", func(t *testing.T) {
		expectedErr := fmt.Errorf("mock_db_error")
		mock.
			ExpectQuery("SELECT id, username, password, role FROM users").
			WillReturnError(expectedErr)
		_, err = r.GetAll()
		assert.ErrorIs(t, err, expectedErr)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})

	t.Run("should return scan rows error", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id"}).AddRow("2")
		mock.
			ExpectQuery("SELECT id, username, password, role FROM users").
			WillReturnRows(rows)
		_, err = r.GetAll()
		assert.ErrorContains(t, err, "scan")
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("expectations unfulfilled: %s", err)
			return
		}
	})
}
