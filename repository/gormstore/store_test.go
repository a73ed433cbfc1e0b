package gormstore

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	users repository.UserRepository
	tasks repository.TaskRepository
}

func (s *StoreTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(AutoMigrate(db))

	store := New(db)
	s.ctx = context.Background()
	s.db = db
	s.users = store.UserRepository()
	s.tasks = store.TaskRepository()
}

func (s *StoreTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func (s *StoreTestSuite) saveUser(username string) *domain.User {
	user, err := s.users.Save(s.ctx, &domain.User{Username: username, Email: username + "@example.com", Role: domain.RoleUser})
	s.Require().NoError(err)
	return user
}

func (s *StoreTestSuite) TestUserRoundTrip() {
	saved := s.saveUser("alice")
	s.NotEmpty(saved.ID)
	s.Equal(saved.CreatedAt, saved.UpdatedAt)

	found, err := s.users.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(saved.ID, found.ID)
	s.Equal("alice@example.com", found.Email)

	missing, err := s.users.FindByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.Require().NoError(err)
	s.Nil(missing)

	exists, err := s.users.ExistsByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StoreTestSuite) TestDuplicateUsername() {
	s.saveUser("bob")
	_, err := s.users.Save(s.ctx, &domain.User{Username: "bob", Role: domain.RoleUser})
	s.ErrorIs(err, domain.ErrUsernameTaken)
}

func (s *StoreTestSuite) TestUserUpdateAdvancesTimestamp() {
	saved := s.saveUser("carol")
	changed := *saved
	changed.Role = domain.RoleAdmin

	updated, err := s.users.Update(s.ctx, &changed)
	s.Require().NoError(err)
	s.True(updated.UpdatedAt.After(saved.CreatedAt))

	reloaded, err := s.users.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, reloaded.Role)

	_, err = s.users.Update(s.ctx, &domain.User{ID: "missing", Username: "x", Role: domain.RoleUser})
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *StoreTestSuite) TestSearchByUsername() {
	s.saveUser("Alice")
	s.saveUser("malik")
	s.saveUser("bob")

	found, err := s.users.SearchByUsername(s.ctx, "LI")
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *StoreTestSuite) TestTaskWithAssignee() {
	owner := s.saveUser("dave")
	due := civil.Date{Year: 2023, Month: 12, Day: 1}

	saved, err := s.tasks.Save(s.ctx, &domain.Task{
		Title:      "Task 1",
		Status:     domain.StatusTodo,
		Priority:   domain.PriorityHigh,
		DueDate:    &due,
		AssigneeID: owner.ID,
	})
	s.Require().NoError(err)

	loaded, err := s.tasks.FindByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Require().NotNil(loaded.Assignee)
	s.Equal("dave", loaded.Assignee.Username)
	s.Require().NotNil(loaded.DueDate)
	s.Equal(due, *loaded.DueDate)
	s.Equal(domain.PriorityHigh, loaded.Priority)

	_, err = s.tasks.Save(s.ctx, &domain.Task{Title: "Task 1", Status: domain.StatusTodo, AssigneeID: owner.ID})
	s.ErrorIs(err, domain.ErrDuplicateTaskName)

	byAssignee, err := s.tasks.FindByAssigneeID(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Len(byAssignee, 1)
}

func (s *StoreTestSuite) TestUnassignedTitlesDoNotCollide() {
	for i := 0; i < 2; i++ {
		_, err := s.tasks.Save(s.ctx, &domain.Task{Title: "Inbox", Status: domain.StatusTodo})
		s.Require().NoError(err)
	}
	todo, err := s.tasks.FindByStatus(s.ctx, domain.StatusTodo)
	s.Require().NoError(err)
	s.Len(todo, 2)
}

func (s *StoreTestSuite) TestDeleteUserDetachesTasks() {
	owner := s.saveUser("eve")
	task, err := s.tasks.Save(s.ctx, &domain.Task{Title: "Review", Status: domain.StatusInProgress, AssigneeID: owner.ID})
	s.Require().NoError(err)

	s.Require().NoError(s.users.Delete(s.ctx, owner))

	loaded, err := s.tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Empty(loaded.AssigneeID)
	s.Nil(loaded.Assignee)

	s.ErrorIs(s.users.Delete(s.ctx, owner), domain.ErrUserNotFound)
}

func (s *StoreTestSuite) TestListFilters() {
	owner := s.saveUser("frank")
	for _, task := range []domain.Task{
		{Title: "one", Status: domain.StatusTodo, Priority: domain.PriorityLow, AssigneeID: owner.ID},
		{Title: "two", Status: domain.StatusDone, Priority: domain.PriorityLow},
		{Title: "three", Status: domain.StatusTodo, Priority: domain.PriorityHigh},
	} {
		task := task
		_, err := s.tasks.Save(s.ctx, &task)
		s.Require().NoError(err)
	}

	low, err := s.tasks.List(s.ctx, repository.TaskFilter{Priority: domain.PriorityLow})
	s.Require().NoError(err)
	s.Len(low, 2)

	mine, err := s.tasks.List(s.ctx, repository.TaskFilter{Status: domain.StatusTodo, AssigneeID: owner.ID})
	s.Require().NoError(err)
	require.Len(s.T(), mine, 1)
	s.Equal("one", mine[0].Title)

	limited, err := s.tasks.List(s.ctx, repository.TaskFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *StoreTestSuite) TestTaskUpdateMissing() {
	_, err := s.tasks.Update(s.ctx, &domain.Task{ID: "missing", Title: "x", Status: domain.StatusTodo})
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
