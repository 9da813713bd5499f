package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/pkg/config"
)

const (
	defaultMaxConns = 25
	defaultMinConns = 2
	dialTimeout     = 10 * time.Second
)

// NewPool abre el pool del libro de inventario. Los NUMERIC (precio, costo) se leen como
// shopspring/decimal y cada consulta pasa por el trazador, que registra errores y
// consultas lentas con log.
func NewPool(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	ipv4 := newIPv4Resolver(cfg.FallbackDNS)

	poolConfig, err := pgxpool.ParseConfig(ipv4.dsn(ctx, cfg))
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	applyPoolSettings(poolConfig, cfg)
	poolConfig.ConnConfig.DialFunc = ipv4.dial
	poolConfig.ConnConfig.Tracer = newQueryTracer(log, time.Duration(cfg.SlowQueryMS)*time.Millisecond)
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("pool de postgres listo")
	return pool, nil
}

// applyPoolSettings tamaño y ciclo de vida de las conexiones. Las mutaciones retienen la
// conexión mientras dura el bloqueo de filas, así que MinConns > MaxConns se recorta.
func applyPoolSettings(pc *pgxpool.Config, cfg config.DBConfig) {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	minConns := cfg.MinConns
	if minConns < 0 {
		minConns = defaultMinConns
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	pc.MaxConns = int32(maxConns)
	pc.MinConns = int32(minConns)
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute
}

// ipv4Resolver prefiere IPv4 al conectar (los contenedores suelen no tener IPv6). Si el
// resolver del sistema no da IPv4 y hay fallback configurado, pregunta a ese DNS.
type ipv4Resolver struct {
	fallback *net.Resolver
}

func newIPv4Resolver(fallbackDNS string) *ipv4Resolver {
	r := &ipv4Resolver{}
	if fallbackDNS != "" {
		r.fallback = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: dialTimeout}
				return d.DialContext(ctx, "udp", fallbackDNS)
			},
		}
	}
	return r
}

// dsn URL de conexión con el host ya resuelto cuando es posible.
func (r *ipv4Resolver) dsn(ctx context.Context, cfg config.DBConfig) string {
	if cfg.DatabaseURL != "" {
		return r.rewriteURL(ctx, cfg.DatabaseURL)
	}
	dsnCfg := cfg
	if ip, err := r.lookup(ctx, cfg.Host); err == nil {
		dsnCfg.Host = ip
	}
	return dsnCfg.DSN()
}

func (r *ipv4Resolver) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	d := &net.Dialer{Timeout: dialTimeout}
	ip, err := r.lookup(ctx, host)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

// lookup IPv4 de host; un literal IPv6 no tiene equivalente.
func (r *ipv4Resolver) lookup(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", fmt.Errorf("%s es IPv6", host)
	}
	ip, err := firstIPv4(ctx, net.DefaultResolver, host)
	if err == nil || r.fallback == nil {
		return ip, err
	}
	return firstIPv4(ctx, r.fallback, host)
}

func firstIPv4(ctx context.Context, res *net.Resolver, host string) (string, error) {
	ips, err := res.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", fmt.Errorf("%s sin IPv4", host)
}

// rewriteURL cambia el hostname de DATABASE_URL por su IPv4; si no resuelve, la URL queda igual.
func (r *ipv4Resolver) rewriteURL(ctx context.Context, databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ip, err := r.lookup(ctx, u.Hostname())
	if err != nil {
		return databaseURL
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
