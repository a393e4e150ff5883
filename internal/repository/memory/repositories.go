package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"invoicer/internal/model"
	"invoicer/internal/repository"
)

type userRepository struct {
	store *Store
	inTx  bool
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.store.write(r.inTx, func(d *data) error {
		for _, u := range d.users {
			if u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		touch(&user.CreatedAt, &user.UpdatedAt, r.store.now())
		d.users[user.ID] = cloneUser(*user)
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.users[user.ID]; !ok {
			return repository.ErrNotFound
		}
		for id, u := range d.users {
			if id != user.ID && u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		touch(nil, &user.UpdatedAt, r.store.now())
		d.users[user.ID] = cloneUser(*user)
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var out model.User
	err := r.store.read(r.inTx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = cloneUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	err := r.store.read(r.inTx, func(d *data) error {
		for _, u := range d.users {
			if u.Email == email {
				out = cloneUser(u)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	_ = r.store.read(r.inTx, func(d *data) error {
		for _, u := range d.users {
			out = append(out, cloneUser(u))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type settingsRepository struct {
	store *Store
	inTx  bool
}

func (r *settingsRepository) Create(ctx context.Context, settings *model.Settings) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.settings[settings.UserID]; ok {
			return repository.ErrDuplicate
		}
		if settings.ID == uuid.Nil {
			settings.ID = uuid.New()
		}
		touch(&settings.CreatedAt, &settings.UpdatedAt, r.store.now())
		d.settings[settings.UserID] = *settings
		return nil
	})
}

func (r *settingsRepository) Update(ctx context.Context, settings *model.Settings) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.settings[settings.UserID]; !ok {
			return repository.ErrNotFound
		}
		touch(nil, &settings.UpdatedAt, r.store.now())
		d.settings[settings.UserID] = *settings
		return nil
	})
}

func (r *settingsRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Settings, error) {
	var out model.Settings
	err := r.store.read(r.inTx, func(d *data) error {
		s, ok := d.settings[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type clientRepository struct {
	store *Store
	inTx  bool
}

func emailTaken(d *data, client *model.Client) bool {
	for id, c := range d.clients {
		if id != client.ID && c.UserID == client.UserID && c.Email == client.Email {
			return true
		}
	}
	return false
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return r.store.write(r.inTx, func(d *data) error {
		if client.ID == uuid.Nil {
			client.ID = uuid.New()
		}
		if emailTaken(d, client) {
			return repository.ErrDuplicate
		}
		touch(&client.CreatedAt, &client.UpdatedAt, r.store.now())
		d.clients[client.ID] = *client
		return nil
	})
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.clients[client.ID]; !ok {
			return repository.ErrNotFound
		}
		if emailTaken(d, client) {
			return repository.ErrDuplicate
		}
		touch(nil, &client.UpdatedAt, r.store.now())
		d.clients[client.ID] = *client
		return nil
	})
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.clients[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.clients, id)
		return nil
	})
}

func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var out model.Client
	err := r.store.read(r.inTx, func(d *data) error {
		c, ok := d.clients[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clientRepository) FindByEmail(ctx context.Context, userID uuid.UUID, email string) (*model.Client, error) {
	var out model.Client
	err := r.store.read(r.inTx, func(d *data) error {
		for _, c := range d.clients {
			if c.UserID == userID && c.Email == email {
				out = c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clientRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Client, error) {
	var out []model.Client
	_ = r.store.read(r.inTx, func(d *data) error {
		for _, c := range d.clients {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type invoiceRepository struct {
	store *Store
	inTx  bool
}

func numberTaken(d *data, invoice *model.Invoice) bool {
	for id, inv := range d.invoices {
		if id != invoice.ID && inv.Number == invoice.Number {
			return true
		}
	}
	return false
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.store.write(r.inTx, func(d *data) error {
		if invoice.ID == uuid.Nil {
			invoice.ID = uuid.New()
		}
		if numberTaken(d, invoice) {
			return repository.ErrDuplicate
		}
		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
			invoice.Items[i].Position = i
		}
		touch(&invoice.CreatedAt, &invoice.UpdatedAt, r.store.now())
		d.invoices[invoice.ID] = invoice.Clone()
		return nil
	})
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.invoices[invoice.ID]; !ok {
			return repository.ErrNotFound
		}
		if numberTaken(d, invoice) {
			return repository.ErrDuplicate
		}
		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
			invoice.Items[i].Position = i
		}
		touch(nil, &invoice.UpdatedAt, r.store.now())
		d.invoices[invoice.ID] = invoice.Clone()
		return nil
	})
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(r.inTx, func(d *data) error {
		if _, ok := d.invoices[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.invoices, id)
		return nil
	})
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var out *model.Invoice
	err := r.store.read(r.inTx, func(d *data) error {
		inv, ok := d.invoices[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = inv.Clone()
		return nil
	})
	return out, err
}

// FindByIDForUpdate is FindByID: writes are already serialized by the store.
func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter repository.InvoiceFilter) ([]model.Invoice, error) {
	var out []model.Invoice
	_ = r.store.read(r.inTx, func(d *data) error {
		for _, inv := range d.invoices {
			if inv.UserID == userID && filter.Matches(inv) {
				out = append(out, *inv.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InvoiceDate.Equal(out[j].InvoiceDate) {
			return out[i].InvoiceDate.After(out[j].InvoiceDate)
		}
		return out[i].Number > out[j].Number
	})
	return out, nil
}

type paymentRepository struct {
	store *Store
	inTx  bool
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.store.write(r.inTx, func(d *data) error {
		if payment.ID == uuid.Nil {
			payment.ID = uuid.New()
		}
		if _, ok := d.payments[payment.ID]; ok {
			return repository.ErrDuplicate
		}
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = r.store.now()
		}
		d.payments[payment.ID] = *payment
		return nil
	})
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var out model.Payment
	err := r.store.read(r.inTx, func(d *data) error {
		p, ok := d.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func sortPayments(payments []model.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].PaymentDate.Before(payments[j].PaymentDate)
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	_ = r.store.read(r.inTx, func(d *data) error {
		for _, p := range d.payments {
			if p.InvoiceID == invoiceID {
				out = append(out, p)
			}
		}
		return nil
	})
	sortPayments(out)
	return out, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	_ = r.store.read(r.inTx, func(d *data) error {
		for _, p := range d.payments {
			if p.UserID == userID {
				out = append(out, p)
			}
		}
		return nil
	})
	sortPayments(out)
	return out, nil
}

func (r *paymentRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.store.write(r.inTx, func(d *data) error {
		for id, p := range d.payments {
			if p.InvoiceID == invoiceID {
				delete(d.payments, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

type sequenceRepository struct {
	store *Store
	inTx  bool
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var next int64
	err := r.store.write(r.inTx, func(d *data) error {
		d.sequences[name]++
		next = d.sequences[name]
		return nil
	})
	return next, err
}
