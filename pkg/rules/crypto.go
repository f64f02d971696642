package rules

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/fernet/fernet-go"

	"github.com/envgen/envgen/pkg/engine"
)

// Supported openssl operations. Output is never reproducible across runs:
// every operation draws from crypto/rand.
var cryptoOps = map[string]func(args map[string]any) (string, error){
	"rsa":     genRSA,
	"ec":      genEC,
	"ed25519": genEd25519,
	"x25519":  genX25519,
	"fernet":  genFernet,
	"random":  genRandom,
}

// rsaKeySizes is the fixed allow-list for the rsa operation.
var rsaKeySizes = map[int]bool{2048: true, 3072: true, 4096: true}

// stdlibCurves maps curve names to stdlib curves. secp256k1 is handled
// separately via the decred implementation.
var stdlibCurves = map[string]elliptic.Curve{
	"secp256r1": elliptic.P256(),
	"secp384r1": elliptic.P384(),
	"secp521r1": elliptic.P521(),
}

// generateCrypto dispatches by operation name.
func generateCrypto(op string, args map[string]any) (string, error) {
	gen, ok := cryptoOps[op]
	if !ok {
		return "", engine.NewError(engine.ErrCodeUnsupportedOperation,
			fmt.Sprintf("unsupported openssl operation %q (supported: rsa, ec, ed25519, x25519, fernet, random)", op)).
			WithOperation(op)
	}
	out, err := gen(args)
	if err != nil {
		var e *engine.Error
		if !errors.As(err, &e) {
			err = engine.NewError(engine.ErrCodeUnsupportedOperation, err.Error()).WithOperation(op)
		} else if e.Operation == "" {
			e.Operation = op
		}
		return "", err
	}
	return out, nil
}

func genRSA(args map[string]any) (string, error) {
	size, err := intArg(args, "key_size", 2048)
	if err != nil {
		return "", err
	}
	if !rsaKeySizes[size] {
		return "", fmt.Errorf("unsupported RSA key size %d (choose from 2048, 3072, 4096)", size)
	}
	encoding, err := strArg(args, "encoding", "pem")
	if err != nil {
		return "", err
	}

	key, err := rsa.GenerateKey(rand.Reader, size)
	if err != nil {
		return "", fmt.Errorf("RSA key generation failed: %w", err)
	}
	return encodeKey("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), encoding)
}

func genEC(args map[string]any) (string, error) {
	curveName, err := strArg(args, "curve", "secp256r1")
	if err != nil {
		return "", err
	}
	encoding, err := strArg(args, "encoding", "pem")
	if err != nil {
		return "", err
	}

	var der []byte
	switch {
	case stdlibCurves[curveName] != nil:
		key, err := ecdsa.GenerateKey(stdlibCurves[curveName], rand.Reader)
		if err != nil {
			return "", fmt.Errorf("EC key generation failed: %w", err)
		}
		if der, err = x509.MarshalECPrivateKey(key); err != nil {
			return "", fmt.Errorf("EC key serialization failed: %w", err)
		}
	case curveName == "secp256k1":
		if der, err = genSecp256k1DER(); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported EC curve %q (choose from secp256r1, secp384r1, secp521r1, secp256k1)", curveName)
	}

	return encodeKey("EC PRIVATE KEY", der, encoding)
}

// sec1PrivateKey is the SEC 1 ECPrivateKey structure. The stdlib marshaller
// only knows NIST curves, so the secp256k1 key is assembled directly.
type sec1PrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

var oidSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

func genSecp256k1DER() ([]byte, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("secp256k1 key generation failed: %w", err)
	}
	pub := key.PubKey().SerializeUncompressed()
	der, err := asn1.Marshal(sec1PrivateKey{
		Version:       1,
		PrivateKey:    key.Serialize(),
		NamedCurveOID: oidSecp256k1,
		PublicKey:     asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("secp256k1 key serialization failed: %w", err)
	}
	return der, nil
}

func genEd25519(args map[string]any) (string, error) {
	encoding, err := strArg(args, "encoding", "pem")
	if err != nil {
		return "", err
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("ed25519 key generation failed: %w", err)
	}

	switch encoding {
	case "pem":
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return "", fmt.Errorf("ed25519 key serialization failed: %w", err)
		}
		return pemString("PRIVATE KEY", der), nil
	case "raw_b64":
		return base64.StdEncoding.EncodeToString(key.Seed()), nil
	}
	return "", fmt.Errorf("unsupported encoding %q for ed25519 (choose from pem, raw_b64)", encoding)
}

func genX25519(args map[string]any) (string, error) {
	encoding, err := strArg(args, "encoding", "raw_b64")
	if err != nil {
		return "", err
	}

	key, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("x25519 key generation failed: %w", err)
	}

	switch encoding {
	case "pem":
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return "", fmt.Errorf("x25519 key serialization failed: %w", err)
		}
		return pemString("PRIVATE KEY", der), nil
	case "raw_b64":
		return base64.StdEncoding.EncodeToString(key.Bytes()), nil
	}
	return "", fmt.Errorf("unsupported encoding %q for x25519 (choose from pem, raw_b64)", encoding)
}

func genFernet(_ map[string]any) (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("fernet key generation failed: %w", err)
	}
	return key.Encode(), nil
}

func genRandom(args map[string]any) (string, error) {
	length, err := intArg(args, "length", 32)
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", fmt.Errorf("random length must be positive, got %d", length)
	}
	encoding, err := strArg(args, "encoding", "hex")
	if err != nil {
		return "", err
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("random generation failed: %w", err)
	}

	switch encoding {
	case "hex":
		return hex.EncodeToString(raw), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(raw), nil
	case "base64url":
		return base64.URLEncoding.EncodeToString(raw), nil
	}
	return "", fmt.Errorf("unsupported encoding %q for random (choose from hex, base64, base64url)", encoding)
}

// encodeKey serializes key material as PEM text or base64 DER.
func encodeKey(pemType string, der []byte, encoding string) (string, error) {
	switch encoding {
	case "pem":
		return pemString(pemType, der), nil
	case "der_b64":
		return base64.StdEncoding.EncodeToString(der), nil
	}
	return "", fmt.Errorf("unsupported encoding %q (choose from pem, der_b64)", encoding)
}

func pemString(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

// intArg reads an integer argument, accepting the numeric and string forms
// the YAML decoder may produce. Templated args arrive as strings.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer, got %q", key, n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("argument %q must be an integer, got %T", key, v)
}

// strArg reads a string argument.
func strArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}
