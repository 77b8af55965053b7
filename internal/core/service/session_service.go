package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/port"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrProductNotFound = errors.New("product not found")
)

// SessionView is a point-in-time copy of a session handed to callers so they
// never hold a reference into the live aggregate.
type SessionView struct {
	ID       string               `json:"id"`
	Items    []domain.LineItem    `json:"items"`
	Customer domain.Customer      `json:"customer"`
	Payment  domain.PaymentMethod `json:"payment_method"`
	State    domain.SessionState  `json:"state"`
	Totals   domain.Totals        `json:"totals"`
	Stats    domain.SessionStats  `json:"stats"`
}

// SessionService owns the live sale sessions and is their only mutator; a
// single mutex serializes every cart operation across sessions.
type SessionService struct {
	catalog   port.ProductCatalog
	customers port.CustomerDirectory

	mu       sync.Mutex
	sessions map[string]*domain.SaleSession
}

func NewSessionService(catalog port.ProductCatalog, customers port.CustomerDirectory) *SessionService {
	return &SessionService{
		catalog:   catalog,
		customers: customers,
		sessions:  make(map[string]*domain.SaleSession),
	}
}

func (s *SessionService) Create() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := domain.NewSaleSession(uuid.NewString())
	s.sessions[session.ID] = session
	return viewOf(session)
}

func (s *SessionService) get(id string) (*domain.SaleSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) View(id string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(id)
	if err != nil {
		return SessionView{}, err
	}
	return viewOf(session), nil
}

func (s *SessionService) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	return s.catalog.Search(ctx, query)
}

func (s *SessionService) SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	return s.customers.Search(ctx, query)
}

// AddProduct resolves the product in the catalog and adds it to the cart,
// capturing its current price and stock.
func (s *SessionService) AddProduct(ctx context.Context, sessionID, productID string) (SessionView, error) {
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return SessionView{}, fmt.Errorf("catalog lookup: %w", err)
	}
	if product == nil {
		return SessionView{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := session.AddProduct(*product); err != nil {
		return viewOf(session), err
	}
	return viewOf(session), nil
}

func (s *SessionService) SetQuantity(sessionID, productID string, quantity int) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	if err := session.SetQuantity(productID, quantity); err != nil {
		return viewOf(session), err
	}
	return viewOf(session), nil
}

func (s *SessionService) RemoveItem(sessionID, productID string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	session.RemoveItem(productID)
	return viewOf(session), nil
}

// SetCustomer binds a customer to the session, replacing any previous one.
// The cart is untouched. An empty ID means an ad-hoc draft.
func (s *SessionService) SetCustomer(sessionID string, customer domain.Customer) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	session.Customer = customer
	return viewOf(session), nil
}

// SaveCustomer persists the session's ad-hoc customer draft to the directory
// and rebinds the session to the stored record.
func (s *SessionService) SaveCustomer(ctx context.Context, sessionID string) (SessionView, error) {
	s.mu.Lock()
	session, err := s.get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return SessionView{}, err
	}
	draft := session.Customer
	s.mu.Unlock()

	stored, err := s.customers.Create(ctx, draft)
	if err != nil {
		return SessionView{}, fmt.Errorf("create customer: %w", err)
	}

	return s.SetCustomer(sessionID, stored)
}

func (s *SessionService) SetPaymentMethod(sessionID, method string) (SessionView, error) {
	parsed, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	session.Payment = parsed
	return viewOf(session), nil
}

func (s *SessionService) Reset(sessionID string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	session.Reset()
	return viewOf(session), nil
}

// beginCheckout validates preconditions and moves the session into
// processing, returning an immutable snapshot for the commit pipeline.
func (s *SessionService) beginCheckout(sessionID string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.get(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	session.State = domain.StateValidating
	if len(session.Items) == 0 || session.Payment == "" {
		session.State = domain.StateIdle
		return SessionView{}, ErrValidationIncomplete
	}

	session.State = domain.StateProcessing
	return viewOf(session), nil
}

func (s *SessionService) failCheckout(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, err := s.get(sessionID); err == nil {
		session.State = domain.StateIdle
	}
}

func (s *SessionService) completeCheckout(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, err := s.get(sessionID); err == nil {
		session.State = domain.StateCompleted
	}
}

func viewOf(session *domain.SaleSession) SessionView {
	items := make([]domain.LineItem, len(session.Items))
	copy(items, session.Items)
	return SessionView{
		ID:       session.ID,
		Items:    items,
		Customer: session.Customer,
		Payment:  session.Payment,
		State:    session.State,
		Totals:   session.Totals(),
		Stats:    session.Stats(),
	}
}
