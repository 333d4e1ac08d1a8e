package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
)

func testLogger() *logger.Logger {
	l := logger.NewLogger()
	l.SetOutput(io.Discard)
	return l
}

func newUserID() string {
	return uuid.NewString()
}

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserRepo) add(user *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetWithRelations(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.IsAdmin {
		return nil, nil
	}
	user.Status = status
	return user, nil
}

func (f *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, u)
	}
	return all, int64(len(all)), nil
}

// fakeRecipeRepo is an in-memory RecipeRepository. Ingredient identity
// mirrors the storage layer: a global name-keyed catalog with pivot rows
// per recipe.
type fakeRecipeRepo struct {
	mu          sync.Mutex
	recipes     map[uuid.UUID]*models.Recipe
	ingredients map[string]uuid.UUID
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{
		recipes:     map[uuid.UUID]*models.Recipe{},
		ingredients: map[string]uuid.UUID{},
	}
}

func (f *fakeRecipeRepo) resolve(name string) uuid.UUID {
	if id, ok := f.ingredients[name]; ok {
		return id
	}
	id := uuid.New()
	f.ingredients[name] = id
	return id
}

func (f *fakeRecipeRepo) pivotRows(recipeID uuid.UUID, pairs []models.IngredientPair) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, 0, len(pairs))
	seen := map[uuid.UUID]bool{}
	for _, pair := range pairs {
		ingredientID := f.resolve(pair.Name)
		if seen[ingredientID] {
			continue
		}
		seen[ingredientID] = true
		rows = append(rows, models.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Measurement:  pair.Measurement,
			Ingredient:   models.Ingredient{ID: ingredientID, Name: pair.Name},
		})
	}
	return rows
}

func (f *fakeRecipeRepo) CreateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	recipe.CreatedAt = time.Now()
	recipe.UpdatedAt = recipe.CreatedAt
	recipe.Ingredients = f.pivotRows(recipe.ID, pairs)
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) UpdateWithIngredients(ctx context.Context, recipe *models.Recipe, pairs []models.IngredientPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipe.UpdatedAt = time.Now()
	recipe.Ingredients = f.pivotRows(recipe.ID, pairs)
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) Clone(ctx context.Context, source *models.Recipe, newOwner uuid.UUID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := &models.Recipe{
		ID:           uuid.New(),
		Title:        source.Title,
		Description:  source.Description,
		PhotoURL:     source.PhotoURL,
		CookingTime:  source.CookingTime,
		UserID:       newOwner,
		CategoryID:   source.CategoryID,
		Instructions: source.Instructions,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	for _, row := range source.Ingredients {
		clone.Ingredients = append(clone.Ingredients, models.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     clone.ID,
			IngredientID: row.IngredientID,
			Measurement:  row.Measurement,
			Ingredient:   row.Ingredient,
		})
	}
	f.recipes[clone.ID] = clone
	return clone, nil
}

func (f *fakeRecipeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, nil
	}
	// Return a snapshot so callers cannot mutate the stored row.
	snapshot := *recipe
	return &snapshot, nil
}

func (f *fakeRecipeRepo) GetDetail(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRecipeRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipe, ok := f.recipes[id]
	if !ok || recipe.UserID != userID {
		return nil, nil
	}
	return recipe, nil
}

func (f *fakeRecipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if recipe, ok := f.recipes[id]; ok {
		recipe.ViewCount++
	}
	return nil
}

func (f *fakeRecipeRepo) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if recipe, ok := f.recipes[id]; ok {
		recipe.PhotoURL = photoURL
	}
	return nil
}

func (f *fakeRecipeRepo) List(ctx context.Context, search string, offset, limit int) ([]*models.Recipe, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.Recipe, 0, len(f.recipes))
	for _, r := range f.recipes {
		if search == "" || strings.Contains(strings.ToLower(r.Title), strings.ToLower(search)) {
			all = append(all, r)
		}
	}
	return all, int64(len(all)), nil
}

func (f *fakeRecipeRepo) Popular(ctx context.Context, limit int) ([]*models.Recipe, error) {
	list, _, _ := f.List(ctx, "", 0, limit)
	return list, nil
}

// fakeLikeRepo enforces the (user, recipe) uniqueness the way the unique
// index does.
type fakeLikeRepo struct {
	mu    sync.Mutex
	likes map[string]*models.Like
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[string]*models.Like{}}
}

func likePairKey(userID, recipeID uuid.UUID) string {
	return userID.String() + "/" + recipeID.String()
}

func (f *fakeLikeRepo) Insert(ctx context.Context, like *models.Like) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := likePairKey(like.UserID, like.RecipeID)
	if _, exists := f.likes[key]; exists {
		return false, nil
	}
	like.ID = uuid.New()
	like.CreatedAt = time.Now()
	f.likes[key] = like
	return true, nil
}

func (f *fakeLikeRepo) DeletePair(ctx context.Context, userID, recipeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.likes, likePairKey(userID, recipeID))
	return nil
}

func (f *fakeLikeRepo) GetPair(ctx context.Context, userID, recipeID uuid.UUID) (*models.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes[likePairKey(userID, recipeID)], nil
}

func (f *fakeLikeRepo) CountByRecipe(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, like := range f.likes {
		if like.RecipeID == recipeID {
			n++
		}
	}
	return n, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[uuid.UUID]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[uuid.UUID]*models.Comment{}}
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now()
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[id], nil
}

func (f *fakeCommentRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok || comment.UserID != userID {
		return nil, nil
	}
	return comment, nil
}

func (f *fakeCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) ListByRecipe(ctx context.Context, recipeID uuid.UUID, offset, limit int) ([]*models.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*models.Comment
	for _, c := range f.comments {
		if c.RecipeID == recipeID {
			list = append(list, c)
		}
	}
	return list, int64(len(list)), nil
}

func (f *fakeCommentRepo) CountByRecipe(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	_, n, err := f.ListByRecipe(ctx, recipeID, 0, 0)
	return n, err
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[uuid.UUID]*models.Category{}}
}

func (f *fakeCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categories[id], nil
}

func (f *fakeCategoryRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	c, _ := f.GetByID(ctx, id)
	return c != nil, nil
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryRepo) List(ctx context.Context, search string, offset, limit int) ([]*models.Category, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*models.Category
	for _, c := range f.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			list = append(list, c)
		}
	}
	return list, int64(len(list)), nil
}

// fakeCache is a TTL-less in-memory Cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("cache miss: %s", key)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := f.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return f.Set(ctx, key, string(raw), expiration)
}

func (f *fakeCache) GetInt64(ctx context.Context, key string) (int64, error) {
	raw, err := f.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var n int64
	_, err = fmt.Sscanf(raw, "%d", &n)
	return n, err
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
		}
	}
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
	}
	return n, nil
}

// fakeProducer records published messages in order.
type fakeProducer struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	Key   string
	Value interface{}
}

func (f *fakeProducer) Publish(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, publishedMessage{Key: key, Value: value})
	return nil
}

func (f *fakeProducer) published() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

// fakePhotoStore records uploads and deletions without any real storage.
type fakePhotoStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	baseURL   string
	uploadErr error
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{baseURL: "https://photos.test"}
}

func (f *fakePhotoStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return f.baseURL + "/" + key, nil
}

func (f *fakePhotoStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakePhotoStore) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, f.baseURL+"/")
}
