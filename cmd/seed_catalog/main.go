// seed_catalog genera un script SQL para poblar categorías, proveedores y ubicaciones
// a partir de un CSV exportado de la planilla de compras.
//
// Uso: go run ./cmd/seed_catalog [-latin1] [-out archivo.sql] catalogo.csv
//
// Formato (separado por ';', con encabezado): tipo;nombre;codigo;descripcion
// tipo ∈ {categoria, proveedor, ubicacion}. El código solo aplica a ubicaciones.
// Planillas guardadas desde Excel en Windows suelen venir en ISO-8859-1: usar -latin1.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type kind string

const (
	kindCategory kind = "categoria"
	kindSupplier kind = "proveedor"
	kindLocation kind = "ubicacion"
)

type row struct {
	kind        kind
	name        string
	code        string
	description string
}

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	outPath := flag.String("out", "", "archivo de salida (por defecto stdout)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog [-latin1] [-out archivo.sql] catalogo.csv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := parse(f, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}
	if err := render(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generado: %d filas de catálogo\n", len(rows))
}

// parse lee el CSV, descarta el encabezado y valida cada fila.
func parse(r io.Reader, latin1 bool) ([]row, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var rows []row
	for i, rec := range records {
		if i == 0 {
			continue // encabezado
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperan al menos tipo y nombre", i+1)
		}
		rw := row{kind: kind(strings.ToLower(strings.TrimSpace(rec[0]))), name: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			rw.code = strings.ToUpper(strings.TrimSpace(rec[2]))
		}
		if len(rec) > 3 {
			rw.description = strings.TrimSpace(rec[3])
		}
		switch rw.kind {
		case kindCategory, kindSupplier:
		case kindLocation:
			if rw.code == "" {
				return nil, fmt.Errorf("línea %d: la ubicación %q requiere código", i+1, rw.name)
			}
		default:
			return nil, fmt.Errorf("línea %d: tipo desconocido %q", i+1, rec[0])
		}
		if rw.name == "" {
			return nil, fmt.Errorf("línea %d: nombre vacío", i+1)
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

// render escribe los INSERT agrupados por tipo y ordenados por nombre para una salida estable.
// Volver a aplicar el script no duplica filas.
func render(w io.Writer, rows []row) error {
	byKind := map[kind][]row{}
	for _, r := range rows {
		byKind[r.kind] = append(byKind[r.kind], r)
	}
	for _, rs := range byKind {
		sort.Slice(rs, func(i, j int) bool { return rs[i].name < rs[j].name })
	}

	var b strings.Builder
	b.WriteString("-- Catálogo base (categorías, proveedores, ubicaciones)\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if rs := byKind[kindCategory]; len(rs) > 0 {
		b.WriteString("-- 1. Categorías\n")
		for _, r := range rs {
			fmt.Fprintf(&b, "INSERT INTO categories (name, description) VALUES ('%s', '%s') ON CONFLICT DO NOTHING;\n",
				escapeSQL(r.name), escapeSQL(r.description))
		}
		b.WriteString("\n")
	}
	if rs := byKind[kindSupplier]; len(rs) > 0 {
		b.WriteString("-- 2. Proveedores\n")
		for _, r := range rs {
			name := escapeSQL(r.name)
			fmt.Fprintf(&b, "INSERT INTO suppliers (name) SELECT '%s' WHERE NOT EXISTS (SELECT 1 FROM suppliers WHERE lower(name) = lower('%s'));\n", name, name)
		}
		b.WriteString("\n")
	}
	if rs := byKind[kindLocation]; len(rs) > 0 {
		b.WriteString("-- 3. Ubicaciones\n")
		for _, r := range rs {
			fmt.Fprintf(&b, "INSERT INTO locations (name, code, description) VALUES ('%s', '%s', '%s') ON CONFLICT DO NOTHING;\n",
				escapeSQL(r.name), escapeSQL(r.code), escapeSQL(r.description))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
