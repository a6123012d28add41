package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	. "todoweb/pkg/test"

	"todoweb/internal/adapter/database/sqlite"
	"todoweb/internal/adapter/database/sqlite/repository"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	"todoweb/pkg/test/factory"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TodoRepositoryTestSuite struct {
	suite.Suite
	db    *sqlite.DB
	repo  port.TodoRepository
	users port.UserRepository
	owner domain.User
}

func (s *TodoRepositoryTestSuite) SetupTest() {
	s.db = InitTestDB()
	s.repo = repository.NewTodoRepository(s.db, nil)
	s.users = repository.NewUserRepository(s.db, nil)
	s.owner = factory.CreateUser(context.Background(), s.users, map[string]any{"Username": "owner"})
}

func (s *TodoRepositoryTestSuite) TearDownTest() {
	s.db.Close()
}

func TestTodoRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoRepositoryTestSuite))
}

func (s *TodoRepositoryTestSuite) TestRepository_Create_Success() {
	todo, err := s.repo.Create(context.Background(), factory.NewTodo(s.owner.ID))

	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), todo.ID)
	assert.Equal(s.T(), "buy milk", todo.Description)
	assert.False(s.T(), todo.Completed)
	assert.Equal(s.T(), s.owner.ID, todo.UserID)
}

func (s *TodoRepositoryTestSuite) TestRepository_Create_UnknownOwnerFails() {
	_, err := s.repo.Create(context.Background(), factory.NewTodo(9999))

	assert.ErrorIs(s.T(), err, domain.ErrPersistence)
}

func (s *TodoRepositoryTestSuite) TestRepository_Create_StoresTwoHundredRunes() {
	description := strings.Repeat("é", domain.DescriptionMaxLength)

	todo, err := s.repo.Create(context.Background(), factory.NewTodo(s.owner.ID, map[string]any{"Description": description}))

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), description, todo.Description)
}

func (s *TodoRepositoryTestSuite) TestRepository_Create_StoresEscapedDescription() {
	description := strings.Repeat("&#34;", domain.DescriptionMaxLength)

	todo, err := s.repo.Create(context.Background(), factory.NewTodo(s.owner.ID, map[string]any{"Description": description}))

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), description, todo.Description)

	_, err = s.repo.Create(context.Background(), factory.NewTodo(s.owner.ID, map[string]any{"Description": description + "x"}))
	assert.ErrorIs(s.T(), err, domain.ErrPersistence)
}

func (s *TodoRepositoryTestSuite) TestRepository_ListByUser_NewestFirstAndScoped() {
	ctx := context.Background()
	other := factory.CreateUser(ctx, s.users)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	factory.CreateTodo(ctx, s.repo, s.owner.ID, map[string]any{"Description": "first", "CreatedAt": base})
	factory.CreateTodo(ctx, s.repo, s.owner.ID, map[string]any{"Description": "second", "CreatedAt": base.Add(time.Minute)})
	factory.CreateTodo(ctx, s.repo, other.ID, map[string]any{"Description": "not mine"})

	todos, err := s.repo.ListByUser(ctx, s.owner.ID)

	assert.NoError(s.T(), err)
	Expect(todos).To(HaveLen(2))
	Expect(todos[0].Description).To(Equal("second"))
	Expect(todos[1].Description).To(Equal("first"))
}

func (s *TodoRepositoryTestSuite) TestRepository_ListByUser_Empty() {
	todos, err := s.repo.ListByUser(context.Background(), s.owner.ID)

	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), todos)
	assert.Empty(s.T(), todos)
}

func (s *TodoRepositoryTestSuite) TestRepository_SetCompleted_ScopedToOwner() {
	ctx := context.Background()
	other := factory.CreateUser(ctx, s.users)
	todo := factory.CreateTodo(ctx, s.repo, s.owner.ID)

	_, err := s.repo.SetCompleted(ctx, todo.ID, other.ID, true)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	unchanged, _ := s.repo.GetByID(ctx, todo.ID)
	assert.False(s.T(), unchanged.Completed)

	updated, err := s.repo.SetCompleted(ctx, todo.ID, s.owner.ID, true)
	assert.NoError(s.T(), err)
	assert.True(s.T(), updated.Completed)
}

func (s *TodoRepositoryTestSuite) TestRepository_DeleteByID() {
	ctx := context.Background()
	other := factory.CreateUser(ctx, s.users)
	todo := factory.CreateTodo(ctx, s.repo, s.owner.ID)

	err := s.repo.DeleteByID(ctx, todo.ID, other.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	err = s.repo.DeleteByID(ctx, todo.ID, s.owner.ID)
	assert.NoError(s.T(), err)

	_, err = s.repo.GetByID(ctx, todo.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoRepositoryTestSuite) TestRepository_OperationsAreTracked() {
	recorder := NewTelemetryRecorder()
	repo := repository.NewTodoRepository(s.db, recorder)

	_, err := repo.Create(context.Background(), factory.NewTodo(s.owner.ID))
	assert.NoError(s.T(), err)

	_, err = repo.SetCompleted(context.Background(), 9999, s.owner.ID, true)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	Expect(recorder.Operations()).To(Equal([]string{"todo.create", "todo.set_completed"}))
	assert.ErrorIs(s.T(), recorder.Calls()[1].Err, domain.ErrNotFound)
}
