package common

// Minimal ERC721 surface: the ERC165 probe, the two identity getters, the
// per-token metadata pointer and the Transfer event.
const erc721abi = `[
	{
		"type": "function",
		"name": "supportsInterface",
		"stateMutability": "view",
		"inputs": [{"name": "interfaceId", "type": "bytes4"}],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "name",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "string"}]
	},
	{
		"type": "function",
		"name": "symbol",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "string"}]
	},
	{
		"type": "function",
		"name": "tokenURI",
		"stateMutability": "view",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "string"}]
	},
	{
		"type": "event",
		"name": "Transfer",
		"anonymous": false,
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "tokenId", "type": "uint256", "indexed": true}
		]
	}
]`

const multicallabi = `[
	{
		"type": "function",
		"name": "aggregate",
		"stateMutability": "payable",
		"inputs": [
			{
				"name": "calls",
				"type": "tuple[]",
				"components": [
					{"name": "target", "type": "address"},
					{"name": "callData", "type": "bytes"}
				]
			}
		],
		"outputs": [
			{"name": "blockNumber", "type": "uint256"},
			{"name": "returnData", "type": "bytes[]"}
		]
	}
]`
