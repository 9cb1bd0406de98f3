package postgres

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SupportRepo stores emergency contacts and support tickets of users.
type SupportRepo struct {
	db      *pgxpool.Pool
	service string
}

func NewSupportRepo(db *pgxpool.Pool) *SupportRepo {
	return &SupportRepo{db: db, service: string(types.RideService)}
}

func (r *SupportRepo) ListContacts(ctx context.Context, userID uuid.UUID) (contacts []models.EmergencyContact, err error) {
	defer observe(r.service, "contact_list")(&err)

	const q = `
		SELECT id, user_id, name, phone, relationship, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at, id;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("support repo: ListContacts: %w", err)
	}
	defer rows.Close()

	contacts = []models.EmergencyContact{}
	for rows.Next() {
		var c models.EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relationship, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("support repo: ListContacts: scan: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("support repo: ListContacts: %w", err)
	}
	return contacts, nil
}

func (r *SupportRepo) AddContact(ctx context.Context, c models.EmergencyContact) (err error) {
	defer observe(r.service, "contact_create")(&err)

	const q = `
		INSERT INTO emergency_contacts (id, user_id, name, phone, relationship, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, q, c.ID, c.UserID, c.Name, c.Phone, c.Relationship, c.CreatedAt); err != nil {
		return fmt.Errorf("support repo: AddContact: %w", err)
	}
	return nil
}

// DeleteContact removes a contact of userID, ErrContactNotFound if the user has no such contact.
func (r *SupportRepo) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) (err error) {
	defer observe(r.service, "contact_delete")(&err)

	const q = `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2;`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, contactID, userID)
	if err != nil {
		return fmt.Errorf("support repo: DeleteContact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrContactNotFound
	}
	return nil
}

func (r *SupportRepo) CreateTicket(ctx context.Context, t *models.SupportTicket) (err error) {
	defer observe(r.service, "ticket_create")(&err)

	const q = `
		INSERT INTO support_tickets (id, user_id, ride_id, category, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err = TxorDB(ctx, r.db).Exec(ctx, q,
		t.ID, t.UserID, t.RideID, string(t.Category), t.Description, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("support repo: CreateTicket: %w", err)
	}
	return nil
}

// ListTickets returns tickets of the user newest first, with a summary of the ride if it still exists.
func (r *SupportRepo) ListTickets(ctx context.Context, userID uuid.UUID) (tickets []*models.SupportTicket, err error) {
	defer observe(r.service, "ticket_list")(&err)

	const q = `
		SELECT t.id, t.user_id, t.ride_id, t.category, t.description, t.status, t.created_at, t.updated_at,
		       r.pickup_address, r.pickup_lat, r.pickup_lng,
		       r.drop_address, r.drop_lat, r.drop_lng,
		       r.fare, r.status
		FROM support_tickets t
		LEFT JOIN rides r ON r.id = t.ride_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC;`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("support repo: ListTickets: %w", err)
	}
	defer rows.Close()

	tickets = []*models.SupportTicket{}
	for rows.Next() {
		var (
			t                          models.SupportTicket
			category, status           string
			pickupAddress, dropAddress *string
			pickupLat, pickupLng       *float64
			dropLat, dropLng           *float64
			fare                       *int
			rideStatus                 *string
		)
		err := rows.Scan(
			&t.ID, &t.UserID, &t.RideID, &category, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt,
			&pickupAddress, &pickupLat, &pickupLng,
			&dropAddress, &dropLat, &dropLng,
			&fare, &rideStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("support repo: ListTickets: scan: %w", err)
		}
		t.Category = types.TicketCategory(category)
		t.Status = types.TicketStatus(status)

		// all ride columns are null together when the ride is gone
		if fare != nil {
			t.Ride = &models.TicketRide{
				Pickup: models.Place{Address: *pickupAddress, Latitude: *pickupLat, Longitude: *pickupLng},
				Drop:   models.Place{Address: *dropAddress, Latitude: *dropLat, Longitude: *dropLng},
				Fare:   *fare,
				Status: types.RideStatus(*rideStatus),
			}
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("support repo: ListTickets: %w", err)
	}
	return tickets, nil
}
