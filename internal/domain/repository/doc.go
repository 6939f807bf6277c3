// Package repository define las entidades de dominio y las interfaces de
// persistencia del servicio de autenticación.
//
// Las implementaciones viven en internal/store (postgres y memoria).
// Los services dependen solo de estas interfaces, lo que permite testear
// la lógica de negocio completa contra el store en memoria.
package repository
