package service

import (
	"context"
	"errors"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/config"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrCredencialesInvalidas = errors.New("credenciales invalidas")

// RolCliente es el rol implícito de toda farmacia compradora; los roles de
// staff viven en la tabla usuarios (administrador | ventas).
const RolCliente = "cliente"

// AuthService autentica tanto staff de la distribuidora como farmacias
// cliente con un solo endpoint: primero se busca el username en usuarios y,
// si no existe, en clientes sincronizados desde el legado.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// Logout revoca los tokens presentados hasta su expiración natural.
	Logout(ctx context.Context, tokens ...string) error
}

type authService struct {
	usuarioRepo repository.UsuarioRepository
	clienteRepo repository.ClienteRepository
	revocados   infra.TokenRevocationStore
	cfg         *config.Config
}

func NewAuthService(
	usuarioRepo repository.UsuarioRepository,
	clienteRepo repository.ClienteRepository,
	revocados infra.TokenRevocationStore,
	cfg *config.Config,
) AuthService {
	return &authService{
		usuarioRepo: usuarioRepo,
		clienteRepo: clienteRepo,
		revocados:   revocados,
		cfg:         cfg,
	}
}

// identidad es lo mínimo que necesita un token, sea staff o cliente.
type identidad struct {
	ID       string
	Username string
	Nombre   string
	Rol      string
	Email    *string
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	ident, hash, err := s.buscarIdentidad(ctx, req.Username)
	if err != nil {
		// Mismo mensaje para usuario inexistente y contraseña mala: no se
		// filtra qué usernames existen.
		return nil, ErrCredencialesInvalidas
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}
	return s.emitirTokens(ident)
}

func (s *authService) buscarIdentidad(ctx context.Context, username string) (identidad, string, error) {
	if u, err := s.usuarioRepo.FindByUsername(ctx, username); err == nil {
		return identidad{
			ID:       u.ID.String(),
			Username: u.Username,
			Nombre:   u.Nombre,
			Rol:      u.Rol,
			Email:    u.Email,
		}, u.PasswordHash, nil
	}

	c, err := s.clienteRepo.FindByUsername(ctx, username)
	if err != nil {
		return identidad{}, "", err
	}
	if !c.Activo {
		return identidad{}, "", ErrCredencialesInvalidas
	}
	nombre := c.Username
	if c.NombreCompleto != nil && *c.NombreCompleto != "" {
		nombre = *c.NombreCompleto
	}
	return identidad{
		ID:       c.ID,
		Username: c.Username,
		Nombre:   nombre,
		Rol:      RolCliente,
		Email:    c.Email,
	}, c.PasswordHash, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, errors.New("refresh token invalido o expirado")
	}

	revocado, err := s.revocados.EstaRevocado(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revocado {
		return nil, errors.New("refresh token revocado")
	}

	ident, err := s.identidadVigente(ctx, claims)
	if err != nil {
		return nil, err
	}

	// Rotación: el refresh usado queda revocado por lo que le reste de vida.
	if claims.ExpiresAt != nil {
		if err := s.revocados.Revocar(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return nil, err
		}
	}
	return s.emitirTokens(ident)
}

// identidadVigente re-verifica contra la base que la cuenta del token sigue
// activa; un cliente desactivado por el sync nocturno no puede renovar.
func (s *authService) identidadVigente(ctx context.Context, claims *TokenClaims) (identidad, error) {
	if claims.Rol == RolCliente {
		c, err := s.clienteRepo.FindByID(ctx, claims.UserID)
		if err != nil || !c.Activo {
			return identidad{}, errors.New("cliente no encontrado o inactivo")
		}
		nombre := c.Username
		if c.NombreCompleto != nil && *c.NombreCompleto != "" {
			nombre = *c.NombreCompleto
		}
		return identidad{ID: c.ID, Username: c.Username, Nombre: nombre, Rol: RolCliente, Email: c.Email}, nil
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return identidad{}, errors.New("token mal formado")
	}
	u, err := s.usuarioRepo.FindByID(ctx, uid)
	if err != nil || !u.Activo {
		return identidad{}, errors.New("usuario no encontrado o inactivo")
	}
	return identidad{ID: u.ID.String(), Username: u.Username, Nombre: u.Nombre, Rol: u.Rol, Email: u.Email}, nil
}

func (s *authService) Logout(ctx context.Context, tokens ...string) error {
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			// Token ya inválido: nada que revocar.
			continue
		}
		if claims.ExpiresAt == nil {
			continue
		}
		if err := s.revocados.Revocar(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return err
		}
	}
	return nil
}

// TokenClaims son los claims propios embebidos en cada token emitido.
// RegisteredClaims.ID (jti) identifica el token para revocación individual.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

func (s *authService) emitirTokens(ident identidad) (*dto.LoginResponse, error) {
	access, err := s.firmarToken(ident, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.firmarToken(ident, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User: dto.UserSummary{
			ID:       ident.ID,
			Username: ident.Username,
			Nombre:   ident.Nombre,
			Rol:      ident.Rol,
			Email:    ident.Email,
		},
	}, nil
}

func (s *authService) firmarToken(ident identidad, duration time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:   ident.ID,
		Username: ident.Username,
		Rol:      ident.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parseToken(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token invalido")
	}
	return claims, nil
}
