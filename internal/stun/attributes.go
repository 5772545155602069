package stun

import (
	"encoding/binary"
	"net"
)

// AttrXORMappedAddress is the attribute type carrying the NAT-observed
// transport address.
const AttrXORMappedAddress uint16 = 0x0020

const familyIPv6 = 0x02

// FindXORMappedAddress walks a STUN attribute section looking for
// XOR-MAPPED-ADDRESS, skipping any other attributes it encounters along
// the way. transactionID is needed because the IPv6 XOR key is derived
// from the magic cookie and transaction id together, unlike the IPv4
// case where the cookie alone suffices.
func FindXORMappedAddress(attrs []byte, transactionID TransactionID) (net.IP, uint16, error) {
	pos := 0
	for pos < len(attrs) {
		if pos+attributeHeaderSize > len(attrs) {
			return nil, 0, &TruncatedAttributeError{}
		}
		attrType := binary.BigEndian.Uint16(attrs[pos : pos+2])
		attrLen := binary.BigEndian.Uint16(attrs[pos+2 : pos+4])
		pos += attributeHeaderSize

		if pos+int(attrLen) > len(attrs) {
			return nil, 0, &TruncatedAttributeError{Type: attrType, Length: attrLen}
		}
		value := attrs[pos : pos+int(attrLen)]

		if attrType == AttrXORMappedAddress {
			return decodeXORMappedAddressValue(value, transactionID)
		}

		pos += int(attrLen)
		if pad := int(attrLen) % 4; pad != 0 {
			pos += 4 - pad
		}
	}
	return nil, 0, &AttributeNotFoundError{Type: AttrXORMappedAddress}
}

const attributeHeaderSize = 4

func decodeXORMappedAddressValue(value []byte, transactionID TransactionID) (net.IP, uint16, error) {
	if len(value) < 4 {
		return nil, 0, &TruncatedAttributeError{Type: AttrXORMappedAddress, Length: uint16(len(value))}
	}

	family := value[1]
	xorPort := binary.BigEndian.Uint16(value[2:4])
	port := xorPort ^ uint16(MagicCookie>>16)

	switch family {
	case familyIPv4:
		if len(value) < 8 {
			return nil, 0, &TruncatedAttributeError{Type: AttrXORMappedAddress, Length: uint16(len(value))}
		}
		var cookie [4]byte
		binary.BigEndian.PutUint32(cookie[:], MagicCookie)
		ip := make(net.IP, 4)
		for i := 0; i < 4; i++ {
			ip[i] = value[4+i] ^ cookie[i]
		}
		return ip, port, nil

	case familyIPv6:
		if len(value) < 20 {
			return nil, 0, &TruncatedAttributeError{Type: AttrXORMappedAddress, Length: uint16(len(value))}
		}
		var key [16]byte
		binary.BigEndian.PutUint32(key[0:4], MagicCookie)
		copy(key[4:16], transactionID[:])
		ip := make(net.IP, 16)
		for i := 0; i < 16; i++ {
			ip[i] = value[4+i] ^ key[i]
		}
		return ip, port, nil

	default:
		return nil, 0, &UnsupportedAddressFamilyError{Family: family}
	}
}
