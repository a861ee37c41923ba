package usecase

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// SignupInput is the account-creation request.
type SignupInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// FieldErrors maps input fields to a human readable problem.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// UserUseCase covers signup and token based authentication.
type UserUseCase interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (adapter.TokenPair, error)
	VerifyToken(ctx context.Context, token string) (*adapter.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Authenticate resolves an access token to an active user.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type userUC struct {
	users    repository.UserRepository
	tokens   *TokenAllocator
	hasher   adapter.PasswordHasher
	issuer   adapter.TokenIssuer
	tm       repository.TransactionManager
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	tokens *TokenAllocator,
	hasher adapter.PasswordHasher,
	issuer adapter.TokenIssuer,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		issuer:   issuer,
		tm:       tm,
		validate: newValidator(),
		log:      logger,
	}
}

func (u *userUC) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Signup")()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validate.Struct(in); err != nil {
		return nil, domain.Validation("invalid signup data", toFieldErrors(err))
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		taken, err := u.users.ExistsByUsernameOrEmail(ctx, tx, in.Username, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflict("username or email already registered")
		}
		slug, err := u.tokens.Generate(ctx, tx)
		if err != nil {
			return err
		}
		nu, err := model.NewUser("", in.Username, in.Email, in.FirstName, in.LastName, slug)
		if err != nil {
			return err
		}
		nu.PasswordHash = hash
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.Conflict("username or email already registered", err)
	}
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

func (u *userUC) Login(ctx context.Context, username, password string) (adapter.TokenPair, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()

	user, err := u.users.FindByUsername(ctx, repository.NoTX, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return adapter.TokenPair{}, domain.Unauthorized("invalid credentials")
		}
		return adapter.TokenPair{}, err
	}
	if !user.IsActive {
		return adapter.TokenPair{}, domain.Unauthorized("account disabled")
	}
	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		return adapter.TokenPair{}, domain.Unauthorized("invalid credentials", err)
	}
	return u.issuer.Issue(user.ID, user.Username)
}

func (u *userUC) VerifyToken(ctx context.Context, token string) (*adapter.Claims, error) {
	return u.issuer.Parse(token, adapter.TokenAccess)
}

func (u *userUC) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := u.issuer.Parse(refreshToken, adapter.TokenRefresh)
	if err != nil {
		return "", err
	}
	return u.issuer.IssueAccess(claims.UserID, claims.Username)
}

func (u *userUC) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := u.issuer.Parse(accessToken, adapter.TokenAccess)
	if err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.Unauthorized("account disabled")
	}
	return user, nil
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func toFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "this field is required"
		case "email":
			out[field] = "enter a valid email address"
		case "min":
			out[field] = "must be at least " + fe.Param() + " characters"
		case "max":
			out[field] = "must be at most " + fe.Param() + " characters"
		case "alphanum":
			out[field] = "may contain only letters and digits"
		default:
			out[field] = "is invalid"
		}
	}
	return out
}
