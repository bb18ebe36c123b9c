package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/iliyamo/art-gallery/internal/model"
)

const accountColumns = "id,username,email,first_name,last_name,phone_number,address,avatar,password_hash,created_at,updated_at"

// mysqlAccountColumn maps lookup fields to columns of the accounts table.
var mysqlAccountColumn = map[Field]string{
	FieldID:       "id",
	FieldUsername: "username",
	FieldEmail:    "email",
}

// MySQLAccountRepo stores accounts in the 'accounts' table.
type MySQLAccountRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewMySQLAccountRepo(db *sql.DB) *MySQLAccountRepo {
	return &MySQLAccountRepo{DB: db, now: time.Now}
}

// isDuplicateEntry reports whether err is MySQL error 1062.
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var (
		a      model.Account
		id     uint64
		avatar sql.NullString
	)
	err := row.Scan(&id, &a.Username, &a.Email, &a.FirstName, &a.LastName,
		&a.PhoneNumber, &a.Address, &avatar, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = strconv.FormatUint(id, 10)
	a.Avatar = avatar.String
	return &a, nil
}

func (r *MySQLAccountRepo) FindByField(ctx context.Context, field Field, value string) (*model.Account, error) {
	col, ok := mysqlAccountColumn[field]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "field %q", field)
	}
	var arg any = value
	switch field {
	case FieldID:
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		arg = id
	case FieldEmail:
		arg = NormalizeEmail(value)
	}

	// col comes from the fixed map above, never from input.
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE "+col+"=? LIMIT 1", arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find account by %s", field)
	}
	return a, nil
}

func (r *MySQLAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.FindByField(ctx, FieldID, id)
}

// Insert creates the account row.  A UNIQUE KEY violation on username or
// email yields ErrDuplicate.
func (r *MySQLAccountRepo) Insert(ctx context.Context, a *model.Account) (*model.Account, error) {
	now := r.now().UTC().Truncate(time.Second)
	out := *a
	out.Email = NormalizeEmail(a.Email)
	out.CreatedAt, out.UpdatedAt = now, now

	var avatar any
	if out.Avatar != "" {
		avatar = out.Avatar
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (username,email,first_name,last_name,phone_number,address,avatar,password_hash,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		out.Username, out.Email, out.FirstName, out.LastName, out.PhoneNumber,
		out.Address, avatar, out.PasswordHash, now, now)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert account")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "insert account: last id")
	}
	out.ID = strconv.FormatInt(id, 10)
	return &out, nil
}

// UpdateFields builds a partial UPDATE from the set fields of patch.
func (r *MySQLAccountRepo) UpdateFields(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	nid, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("first_name", patch.FirstName)
	add("last_name", patch.LastName)
	if patch.Email != nil {
		e := NormalizeEmail(*patch.Email)
		add("email", &e)
	}
	add("phone_number", patch.PhoneNumber)
	add("address", patch.Address)
	add("avatar", patch.Avatar)
	sets = append(sets, "updated_at=?")
	args = append(args, r.now().UTC().Truncate(time.Second), nid)

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET "+strings.Join(sets, ",")+" WHERE id=?", args...); err != nil {
		if isDuplicateEntry(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "update account")
	}
	// RowsAffected is 0 for no-op updates in MySQL, so existence is checked by re-reading.
	return r.FindByField(ctx, FieldID, id)
}
