package cars

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeCarsRepo struct {
	cars   map[uuid.UUID]*models.Car
	photos map[uuid.UUID][]models.CarPhoto
}

func newFakeCarsRepo() *fakeCarsRepo {
	return &fakeCarsRepo{
		cars:   make(map[uuid.UUID]*models.Car),
		photos: make(map[uuid.UUID][]models.CarPhoto),
	}
}

func (f *fakeCarsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeCarsRepo) Create(ctx context.Context, car *models.Car) error {
	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}
	for i := range car.Photos {
		if car.Photos[i].ID == uuid.Nil {
			car.Photos[i].ID = uuid.New()
		}
		car.Photos[i].CarID = car.ID
	}
	f.cars[car.ID] = car
	f.photos[car.ID] = append(f.photos[car.ID], car.Photos...)
	return nil
}

func (f *fakeCarsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	car, ok := f.cars[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	car.Photos = f.photos[id]
	return car, nil
}

func (f *fakeCarsRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Car, error) {
	var out []models.Car
	for _, car := range f.cars {
		if car.OwnerID == ownerID {
			out = append(out, *car)
		}
	}
	return out, nil
}

func (f *fakeCarsRepo) FirstByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Car, error) {
	for _, car := range f.cars {
		if car.OwnerID == ownerID {
			return car, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCarsRepo) Update(ctx context.Context, car *models.Car) error {
	f.cars[car.ID] = car
	return nil
}

func (f *fakeCarsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.cars, id)
	delete(f.photos, id)
	return nil
}

func (f *fakeCarsRepo) CountPhotos(ctx context.Context, carID uuid.UUID) (int64, error) {
	return int64(len(f.photos[carID])), nil
}

func (f *fakeCarsRepo) AddPhoto(ctx context.Context, photo *models.CarPhoto) error {
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	f.photos[photo.CarID] = append(f.photos[photo.CarID], *photo)
	return nil
}

func (f *fakeCarsRepo) ReplacePhotos(ctx context.Context, carID uuid.UUID, photos []models.CarPhoto) error {
	for i := range photos {
		if photos[i].ID == uuid.Nil {
			photos[i].ID = uuid.New()
		}
		photos[i].CarID = carID
	}
	f.photos[carID] = photos
	return nil
}

func (f *fakeCarsRepo) DeletePhoto(ctx context.Context, carID, photoID uuid.UUID) (bool, error) {
	photos := f.photos[carID]
	for i, photo := range photos {
		if photo.ID == photoID {
			f.photos[carID] = append(photos[:i], photos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCarsRepo) ListOwnerIDsMatching(ctx context.Context, brandIDs, modelIDs, typeIDs []uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeCatalogRepo struct {
	brands   map[uuid.UUID]bool
	models   map[uuid.UUID]bool
	variants map[uuid.UUID]bool
	types    map[uuid.UUID]bool
}

func (f *fakeCatalogRepo) ListBrands(ctx context.Context) ([]models.CarBrand, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListBrandsWithModels(ctx context.Context) ([]models.CarBrand, map[uuid.UUID][]models.CarModel, error) {
	return nil, nil, nil
}

func (f *fakeCatalogRepo) ListModelsByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CarModel, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListVariantsByModel(ctx context.Context, modelID uuid.UUID) ([]models.CarVariant, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListTypes(ctx context.Context) ([]models.CarType, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) BrandExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.brands[id], nil
}

func (f *fakeCatalogRepo) ModelExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.models[id], nil
}

func (f *fakeCatalogRepo) VariantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.variants[id], nil
}

func (f *fakeCatalogRepo) TypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.types[id], nil
}

func newTestDBClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type serviceFixture struct {
	svc     Service
	repo    *fakeCarsRepo
	catalog *fakeCatalogRepo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newFakeCarsRepo()
	cat := &fakeCatalogRepo{
		brands:   make(map[uuid.UUID]bool),
		models:   make(map[uuid.UUID]bool),
		variants: make(map[uuid.UUID]bool),
		types:    make(map[uuid.UUID]bool),
	}
	svc, err := NewService(ServiceParams{
		DB:          newTestDBClient(t),
		Repo:        repo,
		CatalogRepo: cat,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return &serviceFixture{svc: svc, repo: repo, catalog: cat}
}

func (fx *serviceFixture) validRegisterRequest() RegisterCarRequest {
	brandID, modelID, typeID := uuid.New(), uuid.New(), uuid.New()
	fx.catalog.brands[brandID] = true
	fx.catalog.models[modelID] = true
	fx.catalog.types[typeID] = true
	return RegisterCarRequest{
		BrandID: brandID,
		ModelID: modelID,
		TypeID:  typeID,
		Year:    2019,
		Color:   "red",
		Photos: []PhotoInput{
			{Data: []byte("front"), ContentType: "image/jpeg"},
			{Data: []byte("rear"), ContentType: "image/jpeg"},
		},
	}
}

func (fx *serviceFixture) registerCar(t *testing.T, ownerID uuid.UUID, photos int) *CarView {
	t.Helper()
	req := fx.validRegisterRequest()
	req.Photos = nil
	for i := 0; i < photos; i++ {
		req.Photos = append(req.Photos, PhotoInput{
			Data:        []byte(fmt.Sprintf("photo-%d", i)),
			ContentType: "image/jpeg",
		})
	}
	view, err := fx.svc.Register(context.Background(), ownerID, req)
	if err != nil {
		t.Fatalf("registering car: %v", err)
	}
	return view
}

func TestRegisterStoresCarWithPhotos(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()

	view, err := fx.svc.Register(context.Background(), owner, fx.validRegisterRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.OwnerID != owner {
		t.Fatalf("expected owner %s, got %s", owner, view.OwnerID)
	}
	if len(view.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(view.Photos))
	}
}

func TestRegisterEnforcesPhotoBounds(t *testing.T) {
	fx := newServiceFixture(t)

	for _, count := range []int{0, 1, 6} {
		req := fx.validRegisterRequest()
		req.Photos = nil
		for i := 0; i < count; i++ {
			req.Photos = append(req.Photos, PhotoInput{Data: []byte("x"), ContentType: "image/jpeg"})
		}
		_, err := fx.svc.Register(context.Background(), uuid.New(), req)
		if err == nil {
			t.Fatalf("expected validation error for %d photos", count)
		}
		if pkgerrors.As(err).Message() != "a car must have between 2 and 5 photos" {
			t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
		}
	}
}

func TestRegisterRejectsImplausibleYear(t *testing.T) {
	fx := newServiceFixture(t)

	for _, year := range []int{1899, time.Now().UTC().Year() + 2} {
		req := fx.validRegisterRequest()
		req.Year = year
		_, err := fx.svc.Register(context.Background(), uuid.New(), req)
		if err == nil {
			t.Fatalf("expected validation error for year %d", year)
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
		}
	}
}

func TestRegisterRejectsUnknownBrand(t *testing.T) {
	fx := newServiceFixture(t)

	req := fx.validRegisterRequest()
	req.BrandID = uuid.New()
	_, err := fx.svc.Register(context.Background(), uuid.New(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "unknown brand" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestGetHidesForeignCars(t *testing.T) {
	fx := newServiceFixture(t)
	view := fx.registerCar(t, uuid.New(), 2)

	_, err := fx.svc.Get(context.Background(), uuid.New(), view.ID)
	if err == nil {
		t.Fatal("expected not found error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", typed.Code())
	}
	if typed.Message() != "car not found" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestUpdateRejectsUnknownVariant(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 2)

	variantID := uuid.New()
	_, err := fx.svc.Update(context.Background(), owner, view.ID, UpdateCarRequest{VariantID: &variantID})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "unknown variant" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestUpdateReplacesPhotoSet(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 3)

	updated, err := fx.svc.Update(context.Background(), owner, view.ID, UpdateCarRequest{
		Photos: []PhotoInput{
			{Data: []byte("new front"), ContentType: "image/jpeg"},
			{Data: []byte("new rear"), ContentType: "image/jpeg"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Photos) != 2 {
		t.Fatalf("expected the photo set swapped to 2, got %d", len(updated.Photos))
	}
	if string(updated.Photos[0].Data) != "new front" {
		t.Fatalf("old photos must be gone, got %q", updated.Photos[0].Data)
	}
}

func TestUpdatePhotoSetEnforcesBounds(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 3)

	for _, count := range []int{1, 6} {
		var photos []PhotoInput
		for i := 0; i < count; i++ {
			photos = append(photos, PhotoInput{Data: []byte("x"), ContentType: "image/jpeg"})
		}
		_, err := fx.svc.Update(context.Background(), owner, view.ID, UpdateCarRequest{Photos: photos})
		if err == nil {
			t.Fatalf("expected validation error for %d photos", count)
		}
		if pkgerrors.As(err).Message() != "a car must have between 2 and 5 photos" {
			t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
		}
	}

	if after, err := fx.svc.Get(context.Background(), owner, view.ID); err != nil || len(after.Photos) != 3 {
		t.Fatalf("rejected updates must not touch the photos, got %d (%v)", len(after.Photos), err)
	}
}

func TestAddPhotoRespectsUpperBound(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 5)

	_, err := fx.svc.AddPhoto(context.Background(), owner, view.ID, AddPhotoRequest{
		Photo: PhotoInput{Data: []byte("one too many"), ContentType: "image/jpeg"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "a car cannot have more than 5 photos" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestAddPhotoAppends(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 2)

	updated, err := fx.svc.AddPhoto(context.Background(), owner, view.ID, AddPhotoRequest{
		Photo: PhotoInput{Data: []byte("side"), ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(updated.Photos))
	}
}

func TestDeletePhotoKeepsMinimum(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 2)

	_, err := fx.svc.DeletePhoto(context.Background(), owner, view.ID, view.Photos[0].ID)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "a car must keep at least 2 photos" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestDeletePhotoUnknownPhoto(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 3)

	_, err := fx.svc.DeletePhoto(context.Background(), owner, view.ID, uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Message() != "photo not found" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestDeletePhotoRemovesOne(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 3)

	updated, err := fx.svc.DeletePhoto(context.Background(), owner, view.ID, view.Photos[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(updated.Photos))
	}
}

func TestDeleteRemovesCar(t *testing.T) {
	fx := newServiceFixture(t)
	owner := uuid.New()
	view := fx.registerCar(t, owner, 2)

	if err := fx.svc.Delete(context.Background(), owner, view.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fx.svc.Get(context.Background(), owner, view.ID); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatal("expected car gone after delete")
	}
}
