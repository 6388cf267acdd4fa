package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FEASTorg/crumbs-go/internal/bus/bustest"
	"github.com/FEASTorg/crumbs-go/internal/config"
	"github.com/FEASTorg/crumbs-go/internal/protocol"
	"github.com/FEASTorg/crumbs-go/internal/testutil/testlog"
)

func testConfig() config.MonitorConfig {
	return config.MonitorConfig{
		Name:         "crumbsmond-test",
		Addr:         ":0",
		PollInterval: "50ms",
		Bus:          config.BusConfig{Kind: "loopback"},
		Peripherals: []config.PeripheralConfig{
			{Address: 0x20, Name: "heater", TypeID: 0},
			{Address: 0x21, Name: "corrupt", TypeID: 3},
			{Address: 0x22, Name: "silent", TypeID: 4},
			{Address: 0x23, Name: "absent", TypeID: 5},
		},
	}
}

func identityFrame(t *testing.T, typeID byte) []byte {
	t.Helper()
	msg := protocol.NewMessage(typeID, protocol.OpcodeIdentity)
	if err := msg.AddU16(0x1234); err != nil {
		t.Fatalf("AddU16: %v", err)
	}
	var buf [protocol.MaxFrameSize]byte
	n, err := protocol.Encode(&msg, buf[:])
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf[:n]
}

func scriptedBus(t *testing.T) *bustest.Script {
	t.Helper()
	script := bustest.NewScript()
	script.Respond(0x20, identityFrame(t, 0x07))

	corrupt := identityFrame(t, 0x03)
	corrupt[len(corrupt)-1] ^= 0xFF
	script.Respond(0x21, corrupt)

	// 0x22 ACKs the staging write but never returns data; 0x23 is not
	// on the bus at all.
	script.Ack(0x22)
	return script
}

func TestPollAllClassifiesPeripherals(t *testing.T) {
	testlog.Start(t)
	script := scriptedBus(t)
	svc := NewService(testConfig(), script)

	svc.PollAll(context.Background())

	online, ok := svc.Status(0x20)
	if !ok || !online.Online {
		t.Fatalf("0x20 status %+v, want online", online)
	}
	if online.TypeID != 0x07 {
		t.Fatalf("0x20 observed type_id 0x%02X, want 0x07", online.TypeID)
	}
	if online.LastSeen.IsZero() {
		t.Fatal("0x20 last_seen not set")
	}

	corrupt, _ := svc.Status(0x21)
	if corrupt.Online {
		t.Fatal("0x21 reported online from a corrupt reply")
	}
	if corrupt.CRCFailures != 1 {
		t.Fatalf("0x21 crc_failures %d, want 1", corrupt.CRCFailures)
	}

	silent, _ := svc.Status(0x22)
	if silent.Online || silent.ReadFailures != 1 {
		t.Fatalf("0x22 status %+v, want offline with one read failure", silent)
	}

	absent, _ := svc.Status(0x23)
	if absent.Online || absent.ReadFailures != 1 {
		t.Fatalf("0x23 status %+v, want offline with one read failure", absent)
	}
}

func TestPollStagesIdentityRequest(t *testing.T) {
	testlog.Start(t)
	script := scriptedBus(t)
	svc := NewService(testConfig(), script)

	svc.PollAll(context.Background())

	var staged bustest.WriteRecord
	var found bool
	for _, w := range script.Writes() {
		if w.Addr == 0x20 {
			staged, found = w, true
			break
		}
	}
	if !found {
		t.Fatal("no write observed for 0x20")
	}

	var msg protocol.Message
	if err := protocol.Decode(staged.Frame, &msg); err != nil {
		t.Fatalf("staged frame does not decode: %v", err)
	}
	if msg.Opcode != protocol.OpcodeSetReply {
		t.Fatalf("staged opcode 0x%02X, want 0x%02X", msg.Opcode, protocol.OpcodeSetReply)
	}
	if msg.DataLen != 1 || msg.Data[0] != protocol.OpcodeIdentity {
		t.Fatalf("staged payload %v, want [identity opcode]", msg.Payload())
	}
}

func TestStatusRoutes(t *testing.T) {
	testlog.Start(t)
	script := scriptedBus(t)
	svc := NewService(testConfig(), script)
	svc.PollAll(context.Background())
	svc.RegisterRoutes()

	rr := httptest.NewRecorder()
	svc.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/health status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	svc.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/peripherals", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/peripherals status %d", rr.Code)
	}
	var list struct {
		Peripherals []PeripheralStatus `json:"peripherals"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode /peripherals: %v", err)
	}
	if len(list.Peripherals) != 4 {
		t.Fatalf("listed %d peripherals, want 4", len(list.Peripherals))
	}
	if list.Peripherals[0].Address != 0x20 || list.Peripherals[0].Name != "heater" {
		t.Fatalf("first listed %+v", list.Peripherals[0])
	}

	rr = httptest.NewRecorder()
	svc.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/peripherals/0x20", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/peripherals/0x20 status %d", rr.Code)
	}
	var one PeripheralStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode /peripherals/0x20: %v", err)
	}
	if !one.Online || one.TypeID != 0x07 {
		t.Fatalf("0x20 via HTTP %+v", one)
	}

	rr = httptest.NewRecorder()
	svc.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/peripherals/0x50", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("/peripherals/0x50 status %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	svc.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/peripherals/zzz", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("/peripherals/zzz status %d, want 400", rr.Code)
	}
}
