package httpaction

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf16"

	"github.com/Azure/go-ntlmssp"
)

const (
	ntlmSignature      = "NTLMSSP\x00"
	challengeHeaderLen = 32
	negotiateUnicode   = 0x00000001
)

// challengeToken returns the first NTLM token offered in a WWW-Authenticate
// value. Servers may combine schemes on one line ("Negotiate, NTLM abc=").
func challengeToken(value string) (string, bool) {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if token, ok := strings.CutPrefix(part, "NTLM "); ok {
			if token = strings.TrimSpace(token); token != "" {
				return token, true
			}
		}
	}
	return "", false
}

// ntlmAuthenticate builds the AUTHENTICATE message answering encoded for
// creds. The configured domain replaces whatever target name the server put
// in its challenge, since the library derives the NTLMv2 hash and the
// message's domain field from it.
func ntlmAuthenticate(encoded string, creds *Credentials) ([]byte, error) {
	challenge, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if creds.Domain != "" {
		if challenge, err = withTargetName(challenge, creds.Domain); err != nil {
			return nil, err
		}
	}
	return ntlmssp.ProcessChallenge(challenge, creds.Username, creds.Password, true)
}

// withTargetName appends name to a CHALLENGE_MESSAGE and points its
// TargetName field at it. The payload keeps its original layout.
func withTargetName(challenge []byte, name string) ([]byte, error) {
	if len(challenge) < challengeHeaderLen || string(challenge[:8]) != ntlmSignature ||
		binary.LittleEndian.Uint32(challenge[8:12]) != 2 {
		return nil, errors.New("not an NTLM challenge message")
	}

	var encoded []byte
	if binary.LittleEndian.Uint32(challenge[20:24])&negotiateUnicode != 0 {
		for _, u := range utf16.Encode([]rune(name)) {
			encoded = binary.LittleEndian.AppendUint16(encoded, u)
		}
	} else {
		encoded = []byte(name)
	}
	if len(encoded) > 0xffff {
		return nil, errors.New("ntlm domain too long")
	}

	out := make([]byte, len(challenge), len(challenge)+len(encoded))
	copy(out, challenge)
	binary.LittleEndian.PutUint16(out[12:14], uint16(len(encoded)))
	binary.LittleEndian.PutUint16(out[14:16], uint16(len(encoded)))
	binary.LittleEndian.PutUint32(out[16:20], uint32(len(challenge)))
	return append(out, encoded...), nil
}
