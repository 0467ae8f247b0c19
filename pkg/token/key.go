package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MinKeyLength はHS256署名鍵として受け付ける最小バイト長（256ビット）。
const MinKeyLength = 32

// ErrInvalidKey は署名鍵の形式が不正な場合に返される。
var ErrInvalidKey = errors.New("署名鍵が不正です")

// SigningKey はトークンの署名と検証に使用する共有秘密鍵。
// ゼロ値は使用できない。ParseSigningKey で生成すること。
type SigningKey struct {
	// material は鍵のバイト列。生成後に変更されることはない。
	material []byte
}

// ParseSigningKey はbase64エンコードされた鍵文字列を復号してSigningKeyを生成する。
// 標準アルファベットを優先し、パディングなし・URLセーフ形式も受け付ける。
func ParseSigningKey(encoded string) (SigningKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return SigningKey{}, fmt.Errorf("%w: 鍵が空です", ErrInvalidKey)
	}

	var (
		decoded []byte
		err     error
	)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		decoded, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return SigningKey{}, fmt.Errorf("%w: base64の復号に失敗: %v", ErrInvalidKey, err)
	}

	if len(decoded) < MinKeyLength {
		return SigningKey{}, fmt.Errorf("%w: %dバイト以上が必要です（実際: %dバイト）", ErrInvalidKey, MinKeyLength, len(decoded))
	}
	return SigningKey{material: decoded}, nil
}

// IsZero は鍵が未初期化かどうかを返す。
func (k SigningKey) IsZero() bool {
	return len(k.material) == 0
}

// bytes は署名ライブラリに渡す鍵のコピーを返す。
func (k SigningKey) bytes() []byte {
	out := make([]byte, len(k.material))
	copy(out, k.material)
	return out
}
