package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/repository"
)

// fakeTx satisfies pgx.Tx for the methods WithTx exercises; anything else
// panics through the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

// fakeBeginner hands out fake transactions and remembers them.
type fakeBeginner struct {
	mu  sync.Mutex
	txs []*fakeTx
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

// fakeRepairmanRepo is an in-memory RepairmanRepository.
type fakeRepairmanRepo struct {
	mu        sync.Mutex
	repairmen map[string]*domain.Repairman
	nextID    int
}

func newFakeRepairmanRepo() *fakeRepairmanRepo {
	return &fakeRepairmanRepo{repairmen: make(map[string]*domain.Repairman)}
}

func (r *fakeRepairmanRepo) Create(_ context.Context, repairman *domain.Repairman) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	repairman.ID = "repairman-" + strconv.Itoa(r.nextID)
	copied := *repairman
	r.repairmen[repairman.UserID] = &copied
	return nil
}

func (r *fakeRepairmanRepo) GetByUserID(_ context.Context, userID string) (*domain.Repairman, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	repairman, ok := r.repairmen[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *repairman
	return &copied, nil
}

func (r *fakeRepairmanRepo) Update(_ context.Context, repairman *domain.Repairman) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *repairman
	r.repairmen[repairman.UserID] = &copied
	return nil
}

func (r *fakeRepairmanRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.repairmen[userID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.repairmen, userID)
	return nil
}

func (r *fakeRepairmanRepo) WithTx(pgx.Tx) repository.RepairmanRepository { return r }

func newProfileFixture(users ...*domain.User) (*ProfileService, *fakeUserRepo, *fakeBeginner) {
	userRepo := newFakeUserRepo(users...)
	beginner := &fakeBeginner{}
	svc := NewProfileService(ProfileDependencies{
		Pool:          beginner,
		UserRepo:      userRepo,
		RepairmanRepo: newFakeRepairmanRepo(),
		ShopRepo:      newFakeShopRepo(),
	})
	return svc, userRepo, beginner
}

func TestBecomeRepairmanSetsFlagTransactionally(t *testing.T) {
	user := &domain.User{ID: "user-1", Verified: true}
	svc, userRepo, beginner := newProfileFixture(user)

	repairman, err := svc.BecomeRepairman(context.Background(), "user-1", RepairmanInput{
		Phone:  "555-0100",
		Skills: []string{"engine"},
	})
	if err != nil {
		t.Fatalf("BecomeRepairman: %v", err)
	}
	if repairman.ID == "" {
		t.Error("profile should get a persisted id")
	}

	stored, _ := userRepo.GetByID(context.Background(), "user-1")
	if !stored.IsRepairman {
		t.Error("user flag should be set")
	}
	if len(beginner.txs) != 1 || !beginner.txs[0].committed {
		t.Fatalf("expected one committed transaction, got %+v", beginner.txs)
	}

	_, err = svc.BecomeRepairman(context.Background(), "user-1", RepairmanInput{Phone: "555-0100"})
	if code := domainErrCode(t, err); code != "CONFLICT" {
		t.Errorf("second enrollment code = %s, want CONFLICT", code)
	}
}

func TestResignRepairmanClearsFlag(t *testing.T) {
	user := &domain.User{ID: "user-1", Verified: true}
	svc, userRepo, _ := newProfileFixture(user)

	if _, err := svc.BecomeRepairman(context.Background(), "user-1", RepairmanInput{Phone: "555-0100"}); err != nil {
		t.Fatalf("BecomeRepairman: %v", err)
	}
	if err := svc.ResignRepairman(context.Background(), "user-1"); err != nil {
		t.Fatalf("ResignRepairman: %v", err)
	}

	stored, _ := userRepo.GetByID(context.Background(), "user-1")
	if stored.IsRepairman {
		t.Error("user flag should be cleared")
	}

	err := svc.ResignRepairman(context.Background(), "user-1")
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("resign twice code = %s, want NOT_FOUND", code)
	}
}

func TestChangePhoneResetsVerification(t *testing.T) {
	user := &domain.User{ID: "user-1", Verified: true}
	svc, _, _ := newProfileFixture(user)

	if _, err := svc.BecomeRepairman(context.Background(), "user-1", RepairmanInput{Phone: "555-0100"}); err != nil {
		t.Fatalf("BecomeRepairman: %v", err)
	}

	updated, err := svc.ChangeRepairmanPhone(context.Background(), "user-1", "555-0199")
	if err != nil {
		t.Fatalf("ChangeRepairmanPhone: %v", err)
	}
	if updated.Phone != "555-0199" {
		t.Errorf("phone = %q, want 555-0199", updated.Phone)
	}
	if updated.Verified {
		t.Error("changing the phone must reset verification")
	}
}

func TestOpenShopOnePerOwner(t *testing.T) {
	user := &domain.User{ID: "user-1", Verified: true}
	svc, userRepo, _ := newProfileFixture(user)

	shop, err := svc.OpenShop(context.Background(), "user-1", ShopInput{Name: "North Garage", Address: "1 Elm"})
	if err != nil {
		t.Fatalf("OpenShop: %v", err)
	}
	if shop.OwnerID != "user-1" {
		t.Errorf("owner = %q, want user-1", shop.OwnerID)
	}
	stored, _ := userRepo.GetByID(context.Background(), "user-1")
	if !stored.HasShop {
		t.Error("user flag should be set")
	}

	_, err = svc.OpenShop(context.Background(), "user-1", ShopInput{Name: "Second", Address: "2 Elm"})
	if code := domainErrCode(t, err); code != "CONFLICT" {
		t.Errorf("second shop code = %s, want CONFLICT", code)
	}
}

func TestCloseShopClearsFlag(t *testing.T) {
	user := &domain.User{ID: "user-1", Verified: true}
	svc, userRepo, _ := newProfileFixture(user)

	if _, err := svc.OpenShop(context.Background(), "user-1", ShopInput{Name: "North Garage"}); err != nil {
		t.Fatalf("OpenShop: %v", err)
	}
	if err := svc.CloseShop(context.Background(), "user-1"); err != nil {
		t.Fatalf("CloseShop: %v", err)
	}

	stored, _ := userRepo.GetByID(context.Background(), "user-1")
	if stored.HasShop {
		t.Error("user flag should be cleared")
	}
	if _, err := svc.GetShopByOwner(context.Background(), "user-1"); err == nil {
		t.Error("shop should be gone")
	}
}
