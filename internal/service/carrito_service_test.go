package service

import (
	"context"
	"testing"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type carritoFixture struct {
	*catalogoFixture
	svc     CarritoService
	carrito *stubCarritoRepo
}

func newCarritoFixture() *carritoFixture {
	cf := newCatalogoFixture()
	f := &carritoFixture{
		catalogoFixture: cf,
		carrito:         newStubCarritoRepo(cf.productos),
	}
	f.svc = NewCarritoService(f.carrito, cf.productos, cf.svc)
	return f
}

func TestAgregar_CotizaConElMargenDelCliente(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.conCliente("CLI-001", intPtr(1))
	f.conMargen(1, "MED-001", "25", nil)

	resp, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 2})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "145", resp.Items[0].PrecioUnitario.String())
	assert.Equal(t, "290", resp.Items[0].Subtotal.String())
	assert.Equal(t, "290", resp.Total.String())
}

func TestAgregar_MismoProductoAcumulaCantidad(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.conCliente("CLI-001", nil)

	_, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 2})
	require.NoError(t, err)
	resp, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 3})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Cantidad)
}

func TestAgregar_AcumuladoNoPuedeExcederElStock(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 4)
	f.conCliente("CLI-001", nil)

	_, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 3})
	require.NoError(t, err)

	_, err = f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 2})
	assert.ErrorIs(t, err, ErrStockInsuficiente)
}

func TestAgregar_ProductoInactivo(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.productos.productos["MED-001"].Activo = false
	f.conCliente("CLI-001", nil)

	_, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 1})
	assert.ErrorIs(t, err, ErrProductoNoEncontrado)
}

func TestActualizar_ItemDeOtroClienteEsNoEncontrado(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.conCliente("CLI-001", nil)
	f.conCliente("CLI-002", nil)

	resp, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 1})
	require.NoError(t, err)
	itemID := uuid.MustParse(resp.Items[0].ID)

	// Un ID ajeno responde "no encontrado", no "prohibido".
	_, err = f.svc.Actualizar(context.Background(), "CLI-002", itemID, dto.ActualizarCarritoRequest{Cantidad: 2})
	assert.ErrorIs(t, err, ErrItemCarritoNoEncontrado)
}

func TestEliminar_QuitaLaLinea(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.conCliente("CLI-001", nil)

	resp, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 1})
	require.NoError(t, err)
	itemID := uuid.MustParse(resp.Items[0].ID)

	require.NoError(t, f.svc.Eliminar(context.Background(), "CLI-001", itemID))

	listado, err := f.svc.Listar(context.Background(), "CLI-001")
	require.NoError(t, err)
	assert.Empty(t, listado.Items)
}

func TestListar_OmiteLineasDeProductosDesactivados(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 50)
	f.conCliente("CLI-001", nil)

	_, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 1})
	require.NoError(t, err)

	// El sync desactivó el producto con la línea ya en el carrito.
	f.productos.productos["MED-001"].Activo = false

	resp, err := f.svc.Listar(context.Background(), "CLI-001")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
}

func TestActualizar_NoPuedeExcederElStock(t *testing.T) {
	f := newCarritoFixture()
	f.conProducto("MED-001", "100.00", "16", 4)
	f.conCliente("CLI-001", nil)

	resp, err := f.svc.Agregar(context.Background(), "CLI-001", dto.AgregarCarritoRequest{ProductoID: "MED-001", Cantidad: 2})
	require.NoError(t, err)
	itemID := uuid.MustParse(resp.Items[0].ID)

	_, err = f.svc.Actualizar(context.Background(), "CLI-001", itemID, dto.ActualizarCarritoRequest{Cantidad: 9})
	assert.ErrorIs(t, err, ErrStockInsuficiente)
}
